package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mathservice-vn/platform/app/internal/config"
)

// VNPayGateway builds redirect URLs for VNPay and verifies its return
// parameters. VNPay is redirect-only: CreatePayment never calls out.
type VNPayGateway struct {
	tmnCode    string
	hashSecret string
	payURL     string
	returnURL  string
	now        func() time.Time
}

func NewVNPayGateway(cfg *config.ServerEnvironment) *VNPayGateway {
	return &VNPayGateway{
		tmnCode:    cfg.VNPayTmnCode,
		hashSecret: cfg.VNPayHashSecret,
		payURL:     cfg.VNPayPayURL,
		returnURL:  cfg.VNPayReturnURL,
		now:        time.Now,
	}
}

func (g *VNPayGateway) Code() string { return CodeVNPay }

func (g *VNPayGateway) CreatePayment(_ context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	// VNPay expects the amount in 1/100 VND units.
	amount := req.Amount.Mul(decimal.NewFromInt(100)).IntPart()

	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    g.tmnCode,
		"vnp_Amount":     strconv.FormatInt(amount, 10),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     req.TransactionRef,
		"vnp_OrderInfo":  req.Description,
		"vnp_OrderType":  "other",
		"vnp_Locale":     "vn",
		"vnp_ReturnUrl":  g.returnURL,
		"vnp_IpAddr":     req.ClientIP,
		"vnp_CreateDate": g.now().Format("20060102150405"),
	}
	params["vnp_SecureHash"] = vnpaySign(g.hashSecret, params)

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return &CreatePaymentResponse{
		PaymentURL: g.payURL + "?" + values.Encode(),
	}, nil
}

func (g *VNPayGateway) VerifyCallback(params map[string]string) (*CallbackResult, error) {
	received, ok := params["vnp_SecureHash"]
	if !ok || params["vnp_TxnRef"] == "" || params["vnp_Amount"] == "" || params["vnp_ResponseCode"] == "" {
		return nil, fmt.Errorf("Missing required VNPay parameters")
	}

	// Recompute the hash over everything except the hash itself.
	rest := make(map[string]string, len(params)-1)
	for k, v := range params {
		if k == "vnp_SecureHash" {
			continue
		}
		rest[k] = v
	}
	if !hmac.Equal([]byte(received), []byte(vnpaySign(g.hashSecret, rest))) {
		return nil, fmt.Errorf("Invalid secure hash: %w", ErrInvalidSignature)
	}

	raw := make(map[string]any, len(params))
	for k, v := range params {
		raw[k] = v
	}

	if params["vnp_ResponseCode"] != "00" {
		return &CallbackResult{
			TransactionRef: params["vnp_TxnRef"],
			Success:        false,
			FailureReason:  fmt.Sprintf("Payment failed (code %s)", params["vnp_ResponseCode"]),
			Raw:            raw,
		}, nil
	}

	cents, err := decimal.NewFromString(params["vnp_Amount"])
	if err != nil {
		return nil, fmt.Errorf("Missing required VNPay parameters")
	}
	return &CallbackResult{
		TransactionRef:       params["vnp_TxnRef"],
		GatewayTransactionID: params["vnp_TransactionNo"],
		Amount:               cents.Div(decimal.NewFromInt(100)),
		Success:              true,
		Raw:                  raw,
	}, nil
}

// vnpaySign computes HMAC-SHA512 over the sorted "k=v&k=v" form of the
// parameters, VNPay's documented signing base.
func vnpaySign(secret string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}
