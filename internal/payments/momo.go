package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mathservice-vn/platform/app/internal/config"
)

// MoMoGateway creates payments through MoMo's v2 gateway API and
// verifies its IPN callbacks.
type MoMoGateway struct {
	partnerCode string
	accessKey   string
	secretKey   string
	endpoint    string
	client      *http.Client
	now         func() time.Time
}

func NewMoMoGateway(cfg *config.ServerEnvironment, client *http.Client) *MoMoGateway {
	return &MoMoGateway{
		partnerCode: cfg.MoMoPartnerCode,
		accessKey:   cfg.MoMoAccessKey,
		secretKey:   cfg.MoMoSecretKey,
		endpoint:    cfg.MoMoEndpoint,
		client:      client,
		now:         time.Now,
	}
}

func (g *MoMoGateway) Code() string { return CodeMoMo }

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	PartnerName string `json:"partnerName"`
	StoreID     string `json:"storeId"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	Lang        string `json:"lang"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
	Deeplink   string `json:"deeplink"`
	QRCodeURL  string `json:"qrCodeUrl"`
}

func (g *MoMoGateway) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	body := momoCreateRequest{
		PartnerCode: g.partnerCode,
		PartnerName: "Math Service",
		StoreID:     "MathService",
		RequestID:   "REQ_" + g.now().Format("20060102150405"),
		Amount:      req.Amount.IntPart(),
		OrderID:     req.TransactionRef,
		OrderInfo:   req.Description,
		RedirectURL: "https://mathservice.com/payments/return",
		IpnURL:      "https://mathservice.com/payments/callback/momo",
		Lang:        "vi",
		ExtraData:   "",
		RequestType: "payWithATM",
	}
	body.Signature = g.createSignature(body)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("momo create request: %w", err)
	}
	defer resp.Body.Close()

	var out momoCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("momo create response: %w", err)
	}
	if out.ResultCode != 0 {
		return nil, fmt.Errorf("momo create rejected: %s (code %d)", out.Message, out.ResultCode)
	}

	return &CreatePaymentResponse{
		PaymentURL: out.PayURL,
		Extra: map[string]string{
			"deeplink":    out.Deeplink,
			"qr_code_url": out.QRCodeURL,
		},
	}, nil
}

// createSignature builds the documented alphabetical raw string and
// signs it with HMAC-SHA256.
func (g *MoMoGateway) createSignature(r momoCreateRequest) string {
	raw := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		g.accessKey, r.Amount, r.ExtraData, r.IpnURL, r.OrderID, r.OrderInfo,
		r.PartnerCode, r.RedirectURL, r.RequestID, r.RequestType)
	return hmacSHA256(g.secretKey, raw)
}

// momoCallbackFields are the parameters MoMo includes in an IPN, in
// the order they participate in the callback signature.
var momoCallbackFields = []string{
	"amount", "extraData", "message", "orderId", "orderInfo", "orderType",
	"partnerCode", "payType", "requestId", "responseTime", "resultCode", "transId",
}

func (g *MoMoGateway) VerifyCallback(params map[string]string) (*CallbackResult, error) {
	received := params["signature"]
	if received == "" || params["orderId"] == "" || params["amount"] == "" || params["resultCode"] == "" {
		return nil, fmt.Errorf("Missing required MoMo parameters")
	}

	raw := "accessKey=" + g.accessKey
	for _, field := range momoCallbackFields {
		raw += "&" + field + "=" + params[field]
	}
	if !hmac.Equal([]byte(received), []byte(hmacSHA256(g.secretKey, raw))) {
		return nil, fmt.Errorf("Invalid signature: %w", ErrInvalidSignature)
	}

	rawParams := make(map[string]any, len(params))
	for k, v := range params {
		rawParams[k] = v
	}

	if params["resultCode"] != "0" {
		return &CallbackResult{
			TransactionRef: params["orderId"],
			Success:        false,
			FailureReason:  fmt.Sprintf("Payment failed: %s (code %s)", params["message"], params["resultCode"]),
			Raw:            rawParams,
		}, nil
	}

	amount, err := decimal.NewFromString(params["amount"])
	if err != nil {
		return nil, fmt.Errorf("Missing required MoMo parameters")
	}
	return &CallbackResult{
		TransactionRef:       params["orderId"],
		GatewayTransactionID: params["transId"],
		Amount:               amount,
		Success:              true,
		Raw:                  rawParams,
	}, nil
}

func hmacSHA256(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
