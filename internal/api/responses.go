package api

// responses.go provides helper functions for sending HTTP responses from the
// service handlers.
//
// All services share the same envelope conventions:
//   - success: {"success": true, "<resource>": ...} plus an optional "message"
//   - errors:  {"detail": "<text>"} with the HTTP status determined by the
//     error code (see MapErrorToResponse)

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mathservice-vn/platform/app/internal/logger"
)

// ErrorResponse is the error body returned to clients.
type ErrorResponse struct {
	Detail string `json:"detail" example:"Invalid token"`
}

// Pagination is the pagination block included in list responses.
type Pagination struct {
	Page  int   `json:"page" example:"1"`
	Limit int   `json:"limit" example:"10"`
	Total int64 `json:"total" example:"42"`
	Pages int64 `json:"pages" example:"5"`
}

// NewPagination computes the page count for a result set.
func NewPagination(page, limit int, total int64) Pagination {
	if limit < 1 {
		limit = 1
	}
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: (total + int64(limit) - 1) / int64(limit),
	}
}

// MapErrorToResponse maps an api.Error (or any error) to an HTTP status and
// a client-safe detail message.
//
// Wrapped causes are excluded from the detail so internal information is
// never leaked; RespondWithError logs the full error server-side.
func MapErrorToResponse(err error) (int, ErrorResponse) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError, ErrorResponse{Detail: "Internal server error"}
	}

	var statusCode int
	switch apiErr.Code() {
	case ErrCodeValidation:
		statusCode = http.StatusBadRequest
	case ErrCodeUnauthorized:
		statusCode = http.StatusUnauthorized
	case ErrCodeForbidden:
		statusCode = http.StatusForbidden
	case ErrCodeNotFound:
		statusCode = http.StatusNotFound
	case ErrCodeConflict:
		statusCode = http.StatusConflict
	case ErrCodeRequestTooLarge:
		statusCode = http.StatusRequestEntityTooLarge
	case ErrCodeUnprocessable:
		statusCode = http.StatusUnprocessableEntity
	case ErrCodeRateLimitExceeded:
		statusCode = http.StatusTooManyRequests
	default:
		statusCode = http.StatusInternalServerError
	}

	detail := apiErr.Detail()
	if statusCode == http.StatusInternalServerError {
		// never expose internal failure details to the client
		detail = "Internal server error"
	}

	return statusCode, ErrorResponse{Detail: detail}
}

// RespondWithError sends a {"detail": ...} error response.
//
// It logs the full error details server-side and sends a sanitized response
// to the client.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, body := MapErrorToResponse(err)

	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Warn("Request failed",
		slog.String("error", err.Error()),
		slog.Int("status_code", statusCode),
		slog.String("detail", body.Detail),
	)

	RespondWithJSON(w, statusCode, body)
}

// RespondWithJSON sends a JSON response with the given status code.
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// If encoding fails, log it but don't try to send another response
			// (headers are already written)
			slog.Error("Failed to encode JSON response",
				slog.String("error", err.Error()),
			)
		}
	}
}

// RespondWithSuccess sends a {"success": true, ...} envelope with the given
// resource fields merged in.
func RespondWithSuccess(w http.ResponseWriter, statusCode int, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	body["success"] = true
	for k, v := range fields {
		body[k] = v
	}
	RespondWithJSON(w, statusCode, body)
}

// DecodeJSONBody decodes the request body into dst, returning a validation
// error suitable for RespondWithError on malformed JSON.
func DecodeJSONBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return WrapValidationError(err, "Invalid JSON body")
	}
	return nil
}
