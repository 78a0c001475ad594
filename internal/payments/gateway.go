// Package payments implements the payment service: gateway integrations
// (VNPay, MoMo, ZaloPay), the transaction lifecycle and user balances.
package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mathservice-vn/platform/app/internal/config"
	"github.com/mathservice-vn/platform/app/internal/database"
)

// Payment method codes as stored in the payment_methods table.
const (
	CodeVNPay   = "VNPAY"
	CodeMoMo    = "MOMO"
	CodeZaloPay = "ZALOPAY"
)

// ErrInvalidSignature marks a callback whose signature or MAC did not
// verify. Gateway errors wrap it so handlers can map it to the
// method-specific response.
var ErrInvalidSignature = errors.New("signature verification failed")

// CreatePaymentRequest carries what a gateway needs to start a payment.
type CreatePaymentRequest struct {
	TransactionRef string
	Amount         decimal.Decimal
	Description    string
	UserID         string
	ClientIP       string
}

// CreatePaymentResponse is the gateway's answer to a create request.
// PaymentURL is where the user must be redirected to pay.
type CreatePaymentResponse struct {
	PaymentURL string
	// Extra gateway-specific fields (deeplink, QR code URL, token).
	Extra map[string]string
}

// CallbackResult is the normalized outcome of a gateway callback after
// signature verification.
type CallbackResult struct {
	TransactionRef       string
	GatewayTransactionID string
	Amount               decimal.Decimal
	Success              bool
	FailureReason        string
	Raw                  map[string]any
}

// Gateway abstracts one payment provider.
type Gateway interface {
	Code() string
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error)
	// VerifyCallback validates the gateway's callback parameters and
	// returns the normalized result. A signature failure wraps
	// ErrInvalidSignature; a declined payment is NOT an error, it is a
	// result with Success=false.
	VerifyCallback(params map[string]string) (*CallbackResult, error)
}

// Factory builds gateways from configuration. MoMo and ZaloPay issue
// HTTP calls to the provider; the client is shared and injectable for
// tests.
type Factory struct {
	cfg    *config.ServerEnvironment
	client *http.Client
}

func NewFactory(cfg *config.ServerEnvironment) *Factory {
	return &Factory{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient swaps the HTTP client (tests point it at a stub server).
func (f *Factory) WithHTTPClient(client *http.Client) *Factory {
	f.client = client
	return f
}

// Gateway returns the provider for a payment method code.
func (f *Factory) Gateway(code string) (Gateway, error) {
	switch code {
	case CodeVNPay:
		return NewVNPayGateway(f.cfg), nil
	case CodeMoMo:
		return NewMoMoGateway(f.cfg, f.client), nil
	case CodeZaloPay:
		return NewZaloPayGateway(f.cfg, f.client), nil
	default:
		return nil, fmt.Errorf("unknown payment method %q", code)
	}
}

// ValidateAmount checks a requested amount against the method's limits.
func ValidateAmount(amount decimal.Decimal, method database.PaymentMethod) error {
	if amount.LessThan(method.MinAmount) {
		return fmt.Errorf("Amount below minimum %s", method.MinAmount.String())
	}
	if amount.GreaterThan(method.MaxAmount) {
		return fmt.Errorf("Amount above maximum %s", method.MaxAmount.String())
	}
	return nil
}

// CalculateFee returns the gateway fee and the total the user pays.
// All arithmetic stays in decimals.
func CalculateFee(amount decimal.Decimal, method database.PaymentMethod) (fee, total decimal.Decimal) {
	fee = amount.Mul(method.FeePercent).Div(decimal.NewFromInt(100))
	return fee, amount.Add(fee)
}
