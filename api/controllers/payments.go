package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/campuspay-backend/api/responses"
	"github.com/angelmondragon/campuspay-backend/api/validators"
	"github.com/angelmondragon/campuspay-backend/internal/payments"
	"github.com/angelmondragon/campuspay-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/campuspay-backend/pkg/errors"
	"github.com/angelmondragon/campuspay-backend/pkg/logger"
)

// PaymentsService is the surface the payment controllers depend on.
type PaymentsService interface {
	CreateOrder(ctx context.Context, input payments.CreateOrderInput) (*payments.CreateOrderResult, error)
	Verify(ctx context.Context, orderID, paymentID, signature string) (*payments.VerifyResult, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.PaymentIntent, error)
}

type createOrderRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Department string `json:"department" validate:"required"`
	Semester   string `json:"semester" validate:"required"`
	RollNumber string `json:"rollNumber" validate:"required"`
	Course     string `json:"course" validate:"required"`
	Program    string `json:"program" validate:"required"`
	College    string `json:"college" validate:"required"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Order   orderResponse           `json:"order"`
	Key     string                  `json:"key"`
	Student payments.StudentSummary `json:"student"`
}

// CreateOrder handles enrollment fee order creation.
func CreateOrder(svc PaymentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateOrder(r.Context(), payments.CreateOrderInput{
			Applicant: payments.Applicant{
				Name:       validators.SanitizeString(payload.Name, validators.MaxFieldLen),
				Email:      validators.SanitizeString(payload.Email, validators.MaxFieldLen),
				Phone:      validators.SanitizeString(payload.Phone, validators.MaxPhoneLen),
				Department: validators.SanitizeString(payload.Department, validators.MaxFieldLen),
				Semester:   validators.SanitizeString(payload.Semester, validators.MaxSemesterLen),
				RollNumber: validators.SanitizeString(payload.RollNumber, validators.MaxRollNumberLen),
				Course:     validators.SanitizeString(payload.Course, validators.MaxFieldLen),
				College:    validators.SanitizeString(payload.College, validators.MaxFieldLen),
			},
			Program:             validators.SanitizeString(payload.Program, validators.MaxFieldLen),
			ClaimedAmountRupees: payload.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, createOrderResponse{
			Success: true,
			Message: "Order created successfully",
			Order: orderResponse{
				ID:       result.OrderID,
				Amount:   result.AmountPaise,
				Currency: result.Currency,
				Receipt:  result.Receipt,
			},
			Key:     result.KeyID,
			Student: result.Student,
		})
	}
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// verifyStudentResponse extends the applicant echo with the charged amount,
// which the receipt page renders from the student block.
type verifyStudentResponse struct {
	payments.StudentSummary
	Amount int64 `json:"amount"`
}

type verifyPaymentResponse struct {
	Success   bool                  `json:"success"`
	Message   string                `json:"message"`
	PaymentID string                `json:"paymentId"`
	Student   verifyStudentResponse `json:"student"`
	Receipt   string                `json:"receipt"`
}

// VerifyPayment authenticates the checkout callback after the client pays.
func VerifyPayment(svc PaymentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Verify(r.Context(), payload.OrderID, payload.PaymentID, payload.Signature)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, verifyPaymentResponse{
			Success:   true,
			Message:   "Payment verified successfully!",
			PaymentID: result.PaymentID,
			Student: verifyStudentResponse{
				StudentSummary: result.Student,
				Amount:         result.AmountPaise,
			},
			Receipt: result.Receipt,
		})
	}
}

// GetPayment fetches one payment intent by its Razorpay order id.
func GetPayment(svc PaymentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		orderID := chi.URLParam(r, "orderId")
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		intent, err := svc.GetByOrderID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, intent)
	}
}
