package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	rzpsdk "github.com/razorpay/razorpay-go"

	"github.com/angelmondragon/campuspay-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/campuspay-backend/pkg/errors"
	"github.com/angelmondragon/campuspay-backend/pkg/logger"
)

var (
	errKeyIDRequired         = errors.New("razorpay key id is required")
	errKeySecretRequired     = errors.New("razorpay key secret is required")
	errWebhookSecretRequired = errors.New("razorpay webhook secret is required")
)

// Order is the subset of Razorpay's order entity the flows consume.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// OrderParams describes a remote order creation request.
type OrderParams struct {
	AmountPaise int64
	Currency    string
	Receipt     string
	Notes       map[string]any
}

// OrderCreator is the surface the payment service depends on, so tests can
// substitute a double for the live SDK.
type OrderCreator interface {
	CreateOrder(ctx context.Context, params OrderParams) (*Order, error)
}

// Client wraps the Razorpay SDK plus the secrets used for signature checks.
type Client struct {
	sdk           *rzpsdk.Client
	keyID         string
	keySecret     string
	webhookSecret string
	logger        *logger.Logger
}

// NewClient initializes the Razorpay wrapper once from configuration.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	c := &Client{
		sdk:           rzpsdk.NewClient(keyID, keySecret),
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		logger:        logg,
	}

	if logg != nil {
		logg.Info(ctx, "razorpay client initialized")
	}
	return c, nil
}

// KeyID returns the public key identifier handed to the checkout frontend.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// KeySecret returns the secret used for payment signature verification.
func (c *Client) KeySecret() string {
	if c == nil {
		return ""
	}
	return c.keySecret
}

// WebhookSecret returns the webhook signing secret. It is distinct from the
// key secret; webhook payloads are signed with this one.
func (c *Client) WebhookSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// CreateOrder creates a remote order and maps the SDK's untyped response.
func (c *Client) CreateOrder(_ context.Context, params OrderParams) (*Order, error) {
	if params.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}

	data := map[string]any{
		"amount":   params.AmountPaise,
		"currency": params.Currency,
		"receipt":  params.Receipt,
	}
	if len(params.Notes) > 0 {
		data["notes"] = params.Notes
	}

	raw, err := c.sdk.Order.Create(data, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create razorpay order")
	}

	order, err := orderFromResponse(raw)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func orderFromResponse(raw map[string]any) (*Order, error) {
	id, _ := raw["id"].(string)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "razorpay order response missing id")
	}
	order := &Order{ID: id}
	if currency, ok := raw["currency"].(string); ok {
		order.Currency = currency
	}
	if receipt, ok := raw["receipt"].(string); ok {
		order.Receipt = receipt
	}
	switch amount := raw["amount"].(type) {
	case float64:
		order.Amount = int64(amount)
	case int64:
		order.Amount = amount
	case int:
		order.Amount = int64(amount)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("unexpected amount type %T in order response", raw["amount"]))
	}
	return order, nil
}

// SignPayload computes the hex HMAC-SHA256 of payload under secret.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature checks the checkout callback signature computed
// over "<orderID>|<paymentID>". The comparison is constant time.
func VerifyPaymentSignature(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}
	expected := SignPayload([]byte(orderID+"|"+paymentID), secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the webhook signature over the exact raw
// request body bytes.
func VerifyWebhookSignature(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	expected := SignPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
