package payments

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/campuspay-backend/pkg/db/models"
	"github.com/angelmondragon/campuspay-backend/pkg/enums"
)

// Repository is the persistence surface for payment intents.
type Repository interface {
	Create(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentIntent, error)
	FindByOrderID(ctx context.Context, razorpayOrderID string) (*models.PaymentIntent, error)
	FindOpenByApplicant(ctx context.Context, email, rollNumber, program string) (*models.PaymentIntent, error)
	Update(ctx context.Context, intent *models.PaymentIntent) error
	MarkPaidByOrderID(ctx context.Context, razorpayOrderID, razorpayPaymentID string) (int64, error)
	WithTx(tx *gorm.DB) Repository
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentIntent, error) {
	if err := r.db.WithContext(ctx).Create(intent).Error; err != nil {
		return nil, err
	}
	return intent, nil
}

func (r *repository) FindByOrderID(ctx context.Context, razorpayOrderID string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("razorpay_order_id = ?", razorpayOrderID).
		First(&intent).Error
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *repository) FindOpenByApplicant(ctx context.Context, email, rollNumber, program string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("email = ? AND roll_number = ? AND program = ? AND status = ?",
			email, rollNumber, program, enums.PaymentStatusCreated).
		First(&intent).Error
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *repository) Update(ctx context.Context, intent *models.PaymentIntent) error {
	return r.db.WithContext(ctx).Save(intent).Error
}

// MarkPaidByOrderID applies the webhook's unconditional paid transition.
// It does not check the current status, so redeliveries are no-ops and a
// prior failed verification gets corrected. Returns the affected row count.
func (r *repository) MarkPaidByOrderID(ctx context.Context, razorpayOrderID, razorpayPaymentID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("razorpay_order_id = ?", razorpayOrderID).
		Updates(map[string]any{
			"razorpay_payment_id": razorpayPaymentID,
			"status":              enums.PaymentStatusPaid,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
