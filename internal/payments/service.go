package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/campuspay-backend/internal/catalog"
	"github.com/angelmondragon/campuspay-backend/pkg/db"
	"github.com/angelmondragon/campuspay-backend/pkg/db/models"
	"github.com/angelmondragon/campuspay-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campuspay-backend/pkg/errors"
	"github.com/angelmondragon/campuspay-backend/pkg/logger"
	"github.com/angelmondragon/campuspay-backend/pkg/razorpay"
)

const currencyINR = "INR"

// signatureSecretProvider exposes the secrets the verification path needs.
type signatureSecretProvider interface {
	KeyID() string
	KeySecret() string
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo    Repository
	Gateway razorpay.OrderCreator
	Secrets signatureSecretProvider
	Catalog *catalog.Catalog
	Tx      TxRunner
	Logger  *logger.Logger
}

// Service owns order creation, client-side verification, and fetch.
type Service struct {
	repo    Repository
	gateway razorpay.OrderCreator
	secrets signatureSecretProvider
	catalog *catalog.Catalog
	tx      TxRunner
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repo required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gateway client required")
	}
	if params.Secrets == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gateway secrets required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "program catalog required")
	}
	return &Service{
		repo:    params.Repo,
		gateway: params.Gateway,
		secrets: params.Secrets,
		catalog: params.Catalog,
		tx:      params.Tx,
		logg:    params.Logger,
	}, nil
}

// CreateOrder validates the submission, prices it against the catalog,
// creates the remote order, and persists the intent. Gateway failure leaves
// no local record behind.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindOpenByApplicant(ctx, input.Applicant.Email, input.Applicant.RollNumber, input.Program)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup existing payment")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment already exists for this program")
	}

	amountPaise, err := s.catalog.PaiseFor(input.Program)
	if err != nil {
		return nil, err
	}

	receipt := buildReceipt(input.Applicant.RollNumber)

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderParams{
		AmountPaise: amountPaise,
		Currency:    currencyINR,
		Receipt:     receipt,
		Notes:       orderNotes(input),
	})
	if err != nil {
		return nil, err
	}

	intent := &models.PaymentIntent{
		Name:               input.Applicant.Name,
		Email:              input.Applicant.Email,
		Phone:              input.Applicant.Phone,
		Department:         input.Applicant.Department,
		Semester:           input.Applicant.Semester,
		RollNumber:         input.Applicant.RollNumber,
		Course:             input.Applicant.Course,
		Program:            input.Program,
		College:            input.Applicant.College,
		AmountPaise:        amountPaise,
		ClaimedAmountPaise: input.ClaimedAmountRupees * 100,
		Currency:           currencyINR,
		RazorpayOrderID:    order.ID,
		Status:             enums.PaymentStatusCreated,
		Receipt:            receipt,
	}

	if _, err := s.repo.Create(ctx, intent); err != nil {
		// The partial unique index catches the race the advisory lookup
		// above cannot: two concurrent submissions for the same applicant.
		if db.IsUniqueViolation(err, "uq_payment_intents_open_enrollment") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment already exists for this program")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist payment intent")
	}

	if intent.ClaimedAmountPaise != amountPaise && s.logg != nil {
		ctx := s.logg.WithFields(ctx, map[string]any{
			"claimed_paise": intent.ClaimedAmountPaise,
			"catalog_paise": amountPaise,
			"program":       input.Program,
		})
		s.logg.Warn(ctx, "claimed amount differs from catalog price")
	}

	return &CreateOrderResult{
		OrderID:     order.ID,
		AmountPaise: amountPaise,
		Currency:    currencyINR,
		Receipt:     receipt,
		KeyID:       s.secrets.KeyID(),
		Student:     studentSummary(intent),
	}, nil
}

// Verify authenticates the checkout callback signature and transitions the
// intent. A mismatch marks the intent failed; the webhook path corrects
// that if the payment actually captured. The find-then-update runs in one
// transaction so a concurrent webhook cannot interleave between the two.
func (s *Service) Verify(ctx context.Context, orderID, paymentID, signature string) (*VerifyResult, error) {
	if s.tx == nil {
		return s.verify(ctx, s.repo, orderID, paymentID, signature)
	}

	var result *VerifyResult
	var verifyErr error
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		result, verifyErr = s.verify(ctx, s.repo.WithTx(tx), orderID, paymentID, signature)
		// A signature mismatch still writes the failed status, and that
		// write must commit. The error is surfaced outside the transaction.
		if verifyErr != nil && pkgerrors.As(verifyErr).Code() == pkgerrors.CodeSignature {
			return nil
		}
		return verifyErr
	})
	if verifyErr != nil {
		return nil, verifyErr
	}
	if txErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, txErr, "verify transaction")
	}
	return result, nil
}

func (s *Service) verify(ctx context.Context, repo Repository, orderID, paymentID, signature string) (*VerifyResult, error) {
	intent, err := repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup payment intent")
	}

	if !razorpay.VerifyPaymentSignature(orderID, paymentID, signature, s.secrets.KeySecret()) {
		intent.Status = enums.PaymentStatusFailed
		if updateErr := repo.Update(ctx, intent); updateErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, updateErr, "persist failed status")
		}
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "payment verification failed - invalid signature")
	}

	intent.RazorpayPaymentID = &paymentID
	intent.RazorpaySignature = &signature
	intent.Status = enums.PaymentStatusPaid
	if err := repo.Update(ctx, intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist paid status")
	}

	return &VerifyResult{
		PaymentID:   paymentID,
		Receipt:     intent.Receipt,
		Student:     studentSummary(intent),
		AmountPaise: intent.AmountPaise,
	}, nil
}

// GetByOrderID fetches one intent by its Razorpay order identifier.
func (s *Service) GetByOrderID(ctx context.Context, orderID string) (*models.PaymentIntent, error) {
	intent, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup payment intent")
	}
	return intent, nil
}

func validateInput(input CreateOrderInput) error {
	missing := []string{}
	fields := map[string]string{
		"name":       input.Applicant.Name,
		"email":      input.Applicant.Email,
		"phone":      input.Applicant.Phone,
		"department": input.Applicant.Department,
		"semester":   input.Applicant.Semester,
		"rollNumber": input.Applicant.RollNumber,
		"course":     input.Applicant.Course,
		"college":    input.Applicant.College,
		"program":    input.Program,
	}
	for field, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "all fields are required").
			WithDetails(map[string]any{"missing": missing})
	}
	if input.ClaimedAmountRupees <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "valid amount is required")
	}
	return nil
}

// buildReceipt derives a practically unique receipt from time, roll number,
// and a random suffix.
func buildReceipt(rollNumber string) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("receipt_%d_%s_%s", time.Now().UnixMilli(), rollNumber, suffix)
}

func orderNotes(input CreateOrderInput) map[string]any {
	return map[string]any{
		"name":       input.Applicant.Name,
		"email":      input.Applicant.Email,
		"phone":      input.Applicant.Phone,
		"department": input.Applicant.Department,
		"semester":   input.Applicant.Semester,
		"rollNumber": input.Applicant.RollNumber,
		"course":     input.Applicant.Course,
		"program":    input.Program,
		"college":    input.Applicant.College,
	}
}

func studentSummary(intent *models.PaymentIntent) StudentSummary {
	return StudentSummary{
		Name:       intent.Name,
		Email:      intent.Email,
		RollNumber: intent.RollNumber,
		Course:     intent.Course,
	}
}
