package payments

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mathservice-vn/platform/app/internal/config"
)

// ZaloPayGateway creates orders through ZaloPay's v2 API. Order
// creation is signed with key1; callbacks are signed with key2.
type ZaloPayGateway struct {
	appID    string
	key1     string
	key2     string
	endpoint string
	client   *http.Client
	now      func() time.Time
}

func NewZaloPayGateway(cfg *config.ServerEnvironment, client *http.Client) *ZaloPayGateway {
	return &ZaloPayGateway{
		appID:    cfg.ZaloPayAppID,
		key1:     cfg.ZaloPayKey1,
		key2:     cfg.ZaloPayKey2,
		endpoint: cfg.ZaloPayEndpoint,
		client:   client,
		now:      time.Now,
	}
}

func (g *ZaloPayGateway) Code() string { return CodeZaloPay }

type zaloCreateResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	OrderURL      string `json:"order_url"`
	ZpTransToken  string `json:"zp_trans_token"`
}

func (g *ZaloPayGateway) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	now := g.now()
	appTransID := fmt.Sprintf("%s_%d", now.Format("060102"), now.Unix())
	appUser := "user_" + req.UserID
	appTime := strconv.FormatInt(now.UnixMilli(), 10)
	amount := strconv.FormatInt(req.Amount.IntPart(), 10)

	embedData, err := json.Marshal(map[string]string{"transaction_ref": req.TransactionRef})
	if err != nil {
		return nil, err
	}
	item := "[]"

	mac := g.createMAC(appTransID, appUser, amount, appTime, string(embedData), item)

	form := url.Values{
		"app_id":       {g.appID},
		"app_user":     {appUser},
		"app_time":     {appTime},
		"amount":       {amount},
		"app_trans_id": {appTransID},
		"embed_data":   {string(embedData)},
		"item":         {item},
		"description":  {req.Description},
		"bank_code":    {""},
		"mac":          {mac},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("zalopay create request: %w", err)
	}
	defer resp.Body.Close()

	var out zaloCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("zalopay create response: %w", err)
	}
	if out.ReturnCode != 1 {
		return nil, fmt.Errorf("zalopay create rejected: %s (code %d)", out.ReturnMessage, out.ReturnCode)
	}

	return &CreatePaymentResponse{
		PaymentURL: out.OrderURL,
		Extra: map[string]string{
			"zp_trans_token": out.ZpTransToken,
			"app_trans_id":   appTransID,
		},
	}, nil
}

// createMAC signs the pipe-joined order fields with key1.
func (g *ZaloPayGateway) createMAC(appTransID, appUser, amount, appTime, embedData, item string) string {
	data := strings.Join([]string{g.appID, appTransID, appUser, amount, appTime, embedData, item}, "|")
	return hmacSHA256(g.key1, data)
}

// zaloCallbackData is the JSON payload inside a callback's "data" field.
type zaloCallbackData struct {
	AppTransID string          `json:"app_trans_id"`
	AppUser    string          `json:"app_user"`
	Amount     decimal.Decimal `json:"amount"`
	ZpTransID  int64           `json:"zp_trans_id"`
	EmbedData  string          `json:"embed_data"`
}

// VerifyCallback expects "data" (JSON string) and "mac" parameters. The
// MAC is HMAC-SHA256(key2, data).
func (g *ZaloPayGateway) VerifyCallback(params map[string]string) (*CallbackResult, error) {
	data := params["data"]
	receivedMAC := params["mac"]
	if data == "" || receivedMAC == "" {
		return nil, fmt.Errorf("Missing required ZaloPay parameters")
	}

	if !hmac.Equal([]byte(receivedMAC), []byte(hmacSHA256(g.key2, data))) {
		return nil, fmt.Errorf("Invalid MAC: %w", ErrInvalidSignature)
	}

	var payload zaloCallbackData
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("zalopay callback data: %w", err)
	}

	// The transaction ref travels in embed_data, set at order creation.
	var embedded struct {
		TransactionRef string `json:"transaction_ref"`
	}
	if payload.EmbedData != "" {
		if err := json.Unmarshal([]byte(payload.EmbedData), &embedded); err != nil {
			return nil, fmt.Errorf("zalopay embed_data: %w", err)
		}
	}
	ref := embedded.TransactionRef
	if ref == "" {
		ref = payload.AppTransID
	}

	return &CallbackResult{
		TransactionRef:       ref,
		GatewayTransactionID: strconv.FormatInt(payload.ZpTransID, 10),
		Amount:               payload.Amount,
		Success:              true,
		Raw:                  map[string]any{"data": data},
	}, nil
}
