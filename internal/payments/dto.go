package payments

// Applicant carries the enrollment form identity fields. The service treats
// them as opaque strings; they are validated for presence at the boundary.
type Applicant struct {
	Name       string
	Email      string
	Phone      string
	Department string
	Semester   string
	RollNumber string
	Course     string
	College    string
}

// CreateOrderInput is one order-creation request.
type CreateOrderInput struct {
	Applicant Applicant
	Program   string
	// ClaimedAmountRupees is what the client believes the fee is. It is
	// checked for positivity only; the actual charge comes from the catalog.
	ClaimedAmountRupees int64
}

// StudentSummary is the applicant echo returned by create/verify responses.
type StudentSummary struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	RollNumber string `json:"rollNumber"`
	Course     string `json:"course"`
}

// CreateOrderResult is handed back to the frontend to launch checkout.
type CreateOrderResult struct {
	OrderID     string
	AmountPaise int64
	Currency    string
	Receipt     string
	KeyID       string
	Student     StudentSummary
}

// VerifyResult reports a successful client-side payment verification.
type VerifyResult struct {
	PaymentID   string
	Receipt     string
	Student     StudentSummary
	AmountPaise int64
}
