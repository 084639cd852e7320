package razorpaywebhook

import (
	"context"
	"strings"

	"github.com/angelmondragon/campuspay-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/campuspay-backend/pkg/errors"
	"github.com/angelmondragon/campuspay-backend/pkg/logger"
)

// Event is the Razorpay webhook envelope.
type Event struct {
	Entity  string  `json:"entity"`
	Event   string  `json:"event"`
	Payload Payload `json:"payload"`
}

type Payload struct {
	Payment *PaymentWrapper `json:"payment,omitempty"`
}

type PaymentWrapper struct {
	Entity PaymentEntity `json:"entity"`
}

// PaymentEntity is the subset of Razorpay's payment entity the flow reads.
type PaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Amount  int64  `json:"amount"`
}

type ServiceParams struct {
	Repo   payments.Repository
	Logger *logger.Logger
}

// Service reconciles gateway-pushed events against stored payment intents,
// independent of the client-driven verification path.
type Service struct {
	repo payments.Repository
	logg *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repo required")
	}
	return &Service{
		repo: params.Repo,
		logg: params.Logger,
	}, nil
}

// HandleEvent dispatches on event type. Only payment.captured mutates state
// today; every other type is acknowledged without effect. New types slot in
// as extra cases.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook event required")
	}

	switch strings.ToLower(event.Event) {
	case "payment.captured":
		if event.Payload.Payment == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment payload missing")
		}
		return s.applyCapture(ctx, event.Payload.Payment.Entity)
	default:
		return nil
	}
}

// applyCapture marks the intent paid without checking its current status.
// That makes redelivery a no-op and lets the webhook overwrite a failed
// status left by a bad client-side verification.
func (s *Service) applyCapture(ctx context.Context, payment PaymentEntity) error {
	if payment.OrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id missing from payment entity")
	}

	affected, err := s.repo.MarkPaidByOrderID(ctx, payment.OrderID, payment.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark payment captured")
	}

	if s.logg != nil {
		ctx := s.logg.WithOrderID(ctx, payment.OrderID)
		if affected == 0 {
			// Acknowledged anyway; erroring here would trigger gateway
			// retry storms for a record we will never have.
			s.logg.Warn(ctx, "payment.captured for unknown order")
		} else {
			s.logg.Info(ctx, "payment captured")
		}
	}
	return nil
}
