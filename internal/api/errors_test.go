package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   ErrorCode
		wantStatus int
		wantDetail string
	}{
		{
			name:       "validation error",
			err:        NewValidationError("Equation is required"),
			wantCode:   ErrCodeValidation,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Equation is required",
		},
		{
			name:       "unauthorized error",
			err:        NewUnauthorizedError("Invalid token"),
			wantCode:   ErrCodeUnauthorized,
			wantStatus: http.StatusUnauthorized,
			wantDetail: "Invalid token",
		},
		{
			name:       "forbidden error",
			err:        NewForbiddenError("Admin access required"),
			wantCode:   ErrCodeForbidden,
			wantStatus: http.StatusForbidden,
			wantDetail: "Admin access required",
		},
		{
			name:       "not found error",
			err:        NewNotFoundError("Transaction not found"),
			wantCode:   ErrCodeNotFound,
			wantStatus: http.StatusNotFound,
			wantDetail: "Transaction not found",
		},
		{
			name:       "conflict error",
			err:        NewConflictError("Invalid status transition from completed to pending"),
			wantCode:   ErrCodeConflict,
			wantStatus: http.StatusConflict,
			wantDetail: "Invalid status transition from completed to pending",
		},
		{
			name:       "rate limit error",
			err:        NewRateLimitError("Too many login attempts"),
			wantCode:   ErrCodeRateLimitExceeded,
			wantStatus: http.StatusTooManyRequests,
			wantDetail: "Too many login attempts",
		},
		{
			name:       "request too large error",
			err:        NewRequestTooLargeError("Request body too large"),
			wantCode:   ErrCodeRequestTooLarge,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantDetail: "Request body too large",
		},
		{
			name:       "unprocessable error",
			err:        NewUnprocessableError("Invalid equation syntax"),
			wantCode:   ErrCodeUnprocessable,
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "Invalid equation syntax",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr *Error
			if !errors.As(tt.err, &apiErr) {
				t.Fatalf("expected *api.Error, got %T", tt.err)
			}
			if apiErr.Code() != tt.wantCode {
				t.Errorf("Code() = %v, want %v", apiErr.Code(), tt.wantCode)
			}

			status, body := MapErrorToResponse(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if body.Detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", body.Detail, tt.wantDetail)
			}
		})
	}
}

func TestInternalErrorsAreSanitized(t *testing.T) {
	cause := fmt.Errorf("pq: connection refused on 10.0.0.3")
	err := WrapInternalError(cause, "failed to store transaction")

	status, body := MapErrorToResponse(err)
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
	if body.Detail != "Internal server error" {
		t.Errorf("detail = %q, internal details must not reach the client", body.Detail)
	}

	// the full cause must still be reachable for server-side logging
	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be preserved via Unwrap")
	}
}

func TestUnknownErrorMapsToInternal(t *testing.T) {
	status, body := MapErrorToResponse(errors.New("boom"))
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
	if body.Detail != "Internal server error" {
		t.Errorf("detail = %q, want sanitized message", body.Detail)
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		total     int64
		wantPages int64
	}{
		{name: "exact fit", page: 1, limit: 10, total: 20, wantPages: 2},
		{name: "partial last page", page: 2, limit: 10, total: 25, wantPages: 3},
		{name: "empty result", page: 1, limit: 10, total: 0, wantPages: 0},
		{name: "single item", page: 1, limit: 10, total: 1, wantPages: 1},
		{name: "limit one", page: 3, limit: 1, total: 7, wantPages: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.limit, tt.total)
			if p.Pages != tt.wantPages {
				t.Errorf("Pages = %d, want %d", p.Pages, tt.wantPages)
			}
			if p.Page != tt.page || p.Limit != tt.limit || p.Total != tt.total {
				t.Errorf("pagination fields not preserved: %+v", p)
			}
		})
	}
}
