package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/campuspay-backend/pkg/enums"
)

// PaymentIntent records one attempted fee payment tied to a Razorpay order.
// The applicant fields mirror the enrollment form and are opaque to the
// payment flow; they travel to Razorpay as order notes.
type PaymentIntent struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	Email      string    `gorm:"column:email;not null;index" json:"email"`
	Phone      string    `gorm:"column:phone;not null" json:"phone"`
	Department string    `gorm:"column:department;not null" json:"department"`
	Semester   string    `gorm:"column:semester;not null" json:"semester"`
	RollNumber string    `gorm:"column:roll_number;not null;index" json:"rollNumber"`
	Course     string    `gorm:"column:course;not null" json:"course"`
	Program    string    `gorm:"column:program;not null" json:"program"`
	College    string    `gorm:"column:college;not null" json:"college"`

	// AmountPaise is the catalog-derived charge sent to the gateway.
	// ClaimedAmountPaise is what the client submitted; kept separately so a
	// mismatch can be audited instead of silently discarded.
	AmountPaise        int64  `gorm:"column:amount_paise;not null" json:"amountPaise"`
	ClaimedAmountPaise int64  `gorm:"column:claimed_amount_paise;not null" json:"claimedAmountPaise"`
	Currency           string `gorm:"column:currency;not null;default:'INR'" json:"currency"`

	RazorpayOrderID   string  `gorm:"column:razorpay_order_id;not null;unique" json:"razorpayOrderId"`
	RazorpayPaymentID *string `gorm:"column:razorpay_payment_id" json:"razorpayPaymentId,omitempty"`
	RazorpaySignature *string `gorm:"column:razorpay_signature" json:"razorpaySignature,omitempty"`

	Status  enums.PaymentStatus `gorm:"column:status;not null;default:'created';index" json:"status"`
	Receipt string              `gorm:"column:receipt;not null" json:"receipt"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
