package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/angelmondragon/campuspay-backend/api/responses"
	razorpaywebhook "github.com/angelmondragon/campuspay-backend/internal/webhooks/razorpay"
	pkgerrors "github.com/angelmondragon/campuspay-backend/pkg/errors"
	"github.com/angelmondragon/campuspay-backend/pkg/logger"
	"github.com/angelmondragon/campuspay-backend/pkg/razorpay"
)

const signatureHeader = "X-Razorpay-Signature"

type RazorpayWebhookService interface {
	HandleEvent(ctx context.Context, event *razorpaywebhook.Event) error
}

// WebhookGuard suppresses duplicate deliveries of the same event.
type WebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	FirstSeen(ctx context.Context, eventID string) (string, error)
	Delete(ctx context.Context, eventID string) error
}

type webhookSecretProvider interface {
	WebhookSecret() string
}

// RazorpayWebhook handles gateway-pushed payment events. The body must be
// consumed as raw bytes: the signature covers the exact wire bytes, so no
// middleware may parse or rewrite it first.
func RazorpayWebhook(svc RazorpayWebhookService, secrets webhookSecretProvider, guard WebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || secrets == nil {
			writeWebhookError(w, http.StatusInternalServerError, "webhook handler unavailable")
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			writeWebhookError(w, http.StatusInternalServerError, "failed to read request body")
			return
		}

		signature := r.Header.Get(signatureHeader)
		if !razorpay.VerifyWebhookSignature(payload, signature, secrets.WebhookSecret()) {
			if logg != nil {
				logg.Warn(ctx, "webhook signature verification failed")
			}
			writeWebhookError(w, http.StatusBadRequest, "Invalid signature")
			return
		}

		var event razorpaywebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			writeWebhookError(w, http.StatusBadRequest, "malformed event payload")
			return
		}

		eventID := webhookEventID(r, &event)
		if guard != nil && eventID != "" {
			alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
			if err != nil {
				writeWebhookError(w, http.StatusInternalServerError, "idempotency check failed")
				return
			}
			if alreadyProcessed {
				if logg != nil {
					if firstSeen, err := guard.FirstSeen(ctx, eventID); err == nil && firstSeen != "" {
						logg.Info(logg.WithEventID(ctx, eventID), "duplicate webhook delivery suppressed, first seen "+firstSeen)
					}
				}
				responses.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
				return
			}
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			// Permanently malformed events keep their idempotency mark: a 400
			// stops the gateway from redelivering a payload that can never
			// succeed. Transient failures release the mark so retries get
			// processed.
			if typed := pkgerrors.As(err); typed.Code() == pkgerrors.CodeValidation {
				if logg != nil {
					logg.Warn(ctx, "webhook event rejected: "+typed.Message())
				}
				writeWebhookError(w, http.StatusBadRequest, "Invalid event payload")
				return
			}
			if guard != nil && eventID != "" {
				_ = guard.Delete(ctx, eventID)
			}
			if logg != nil {
				logg.Error(ctx, "webhook processing failed", err)
			}
			writeWebhookError(w, http.StatusInternalServerError, "Webhook processing failed")
			return
		}

		if logg != nil && eventID != "" {
			logg.Info(logg.WithEventID(ctx, eventID), "webhook event processed")
		}
		responses.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// webhookEventID prefers Razorpay's delivery id header; payment id plus
// event type is a stable fallback for replays of the same delivery.
func webhookEventID(r *http.Request, event *razorpaywebhook.Event) string {
	if id := r.Header.Get("X-Razorpay-Event-Id"); id != "" {
		return id
	}
	if event.Payload.Payment != nil && event.Payload.Payment.Entity.ID != "" {
		return event.Event + ":" + event.Payload.Payment.Entity.ID
	}
	return ""
}

func writeWebhookError(w http.ResponseWriter, status int, message string) {
	responses.WriteJSON(w, status, map[string]string{
		"status":  "error",
		"message": message,
	})
}
