package payments

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/campuspay-backend/internal/catalog"
	"github.com/angelmondragon/campuspay-backend/pkg/db/models"
	"github.com/angelmondragon/campuspay-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campuspay-backend/pkg/errors"
	"github.com/angelmondragon/campuspay-backend/pkg/razorpay"
	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	open      *models.PaymentIntent
	openErr   error
	byOrderID map[string]*models.PaymentIntent
	created   []*models.PaymentIntent
	createErr error
	updated   []*models.PaymentIntent
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		openErr:   gorm.ErrRecordNotFound,
		byOrderID: make(map[string]*models.PaymentIntent),
	}
}

func (f *fakeRepo) Create(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentIntent, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, intent)
	f.byOrderID[intent.RazorpayOrderID] = intent
	return intent, nil
}

func (f *fakeRepo) FindByOrderID(ctx context.Context, razorpayOrderID string) (*models.PaymentIntent, error) {
	intent, ok := f.byOrderID[razorpayOrderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return intent, nil
}

func (f *fakeRepo) FindOpenByApplicant(ctx context.Context, email, rollNumber, program string) (*models.PaymentIntent, error) {
	if f.open != nil {
		return f.open, nil
	}
	return nil, f.openErr
}

func (f *fakeRepo) Update(ctx context.Context, intent *models.PaymentIntent) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, intent)
	return nil
}

func (f *fakeRepo) MarkPaidByOrderID(ctx context.Context, razorpayOrderID, razorpayPaymentID string) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository {
	return f
}

// fakeTxRunner records whether the wrapped function committed (returned nil)
// or rolled back.
type fakeTxRunner struct {
	calls      int
	committed  int
	rolledBack int
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	if err := fn(nil); err != nil {
		f.rolledBack++
		return err
	}
	f.committed++
	return nil
}

type fakeGateway struct {
	orders []razorpay.OrderParams
	err    error
}

func (f *fakeGateway) CreateOrder(ctx context.Context, params razorpay.OrderParams) (*razorpay.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.orders = append(f.orders, params)
	return &razorpay.Order{
		ID:       "order_test123",
		Amount:   params.AmountPaise,
		Currency: params.Currency,
		Receipt:  params.Receipt,
	}, nil
}

type fakeSecrets struct {
	keyID     string
	keySecret string
}

func (f *fakeSecrets) KeyID() string     { return f.keyID }
func (f *fakeSecrets) KeySecret() string { return f.keySecret }

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Entry{
		{Program: "ProgX", Rupees: decimal.NewFromInt(5000)},
		{Program: "MBA", Rupees: decimal.NewFromInt(72000)},
	})
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		Applicant: Applicant{
			Name:       "Asha Rao",
			Email:      "asha@example.com",
			Phone:      "9999999999",
			Department: "CSE",
			Semester:   "1",
			RollNumber: "CS2026001",
			Course:     "B.Tech",
			College:    "Model Engineering College",
		},
		Program:             "ProgX",
		ClaimedAmountRupees: 5000,
	}
}

func newTestService(t *testing.T, repo Repository, gateway razorpay.OrderCreator) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Gateway: gateway,
		Secrets: &fakeSecrets{keyID: "rzp_test_key", keySecret: "keysecret"},
		Catalog: testCatalog(),
	})
	require.NoError(t, err)
	return svc
}

func TestCreateOrder_UsesCatalogPrice(t *testing.T) {
	repo := newFakeRepo()
	gateway := &fakeGateway{}
	svc := newTestService(t, repo, gateway)

	input := validInput()
	input.ClaimedAmountRupees = 1 // wildly understated, must not matter

	result, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, int64(500000), result.AmountPaise)
	require.Equal(t, "INR", result.Currency)
	require.Equal(t, "order_test123", result.OrderID)
	require.Equal(t, "rzp_test_key", result.KeyID)
	require.Equal(t, "asha@example.com", result.Student.Email)

	require.Len(t, gateway.orders, 1)
	require.Equal(t, int64(500000), gateway.orders[0].AmountPaise)
	require.Equal(t, "CS2026001", gateway.orders[0].Notes["rollNumber"])

	require.Len(t, repo.created, 1)
	intent := repo.created[0]
	require.Equal(t, int64(500000), intent.AmountPaise)
	require.Equal(t, int64(100), intent.ClaimedAmountPaise)
	require.Equal(t, enums.PaymentStatusCreated, intent.Status)
	require.True(t, strings.HasPrefix(intent.Receipt, "receipt_"))
	require.Contains(t, intent.Receipt, "CS2026001")
}

func TestCreateOrder_MissingFields(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeGateway{})

	input := validInput()
	input.Applicant.Email = ""
	input.Applicant.RollNumber = "  "

	_, err := svc.CreateOrder(context.Background(), input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	require.ElementsMatch(t, []string{"email", "rollNumber"}, details["missing"])
}

func TestCreateOrder_NonPositiveAmount(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeGateway{})

	input := validInput()
	input.ClaimedAmountRupees = 0

	_, err := svc.CreateOrder(context.Background(), input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateOrder_UnknownProgram(t *testing.T) {
	gateway := &fakeGateway{}
	svc := newTestService(t, newFakeRepo(), gateway)

	input := validInput()
	input.Program = "Astrology"

	_, err := svc.CreateOrder(context.Background(), input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	require.Empty(t, gateway.orders)
}

func TestCreateOrder_DuplicateOpenIntent(t *testing.T) {
	repo := newFakeRepo()
	repo.open = &models.PaymentIntent{RazorpayOrderID: "order_existing"}
	gateway := &fakeGateway{}
	svc := newTestService(t, repo, gateway)

	_, err := svc.CreateOrder(context.Background(), validInput())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
	require.Empty(t, gateway.orders)
}

func TestCreateOrder_GatewayFailureLeavesNoRecord(t *testing.T) {
	repo := newFakeRepo()
	gateway := &fakeGateway{err: pkgerrors.New(pkgerrors.CodeDependency, "gateway unavailable")}
	svc := newTestService(t, repo, gateway)

	_, err := svc.CreateOrder(context.Background(), validInput())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeDependency, typed.Code())
	require.Empty(t, repo.created)
}

func TestCreateOrder_PersistRaceMapsToConflict(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New(`duplicate key value violates unique constraint "uq_payment_intents_open_enrollment"`)
	svc := newTestService(t, repo, &fakeGateway{})

	_, err := svc.CreateOrder(context.Background(), validInput())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestVerify_ValidSignatureMarksPaid(t *testing.T) {
	repo := newFakeRepo()
	repo.byOrderID["order_test123"] = &models.PaymentIntent{
		Name:            "Asha Rao",
		Email:           "asha@example.com",
		RollNumber:      "CS2026001",
		Course:          "B.Tech",
		AmountPaise:     500000,
		RazorpayOrderID: "order_test123",
		Status:          enums.PaymentStatusCreated,
		Receipt:         "receipt_1_CS2026001_ab",
	}
	svc := newTestService(t, repo, &fakeGateway{})

	signature := razorpay.SignPayload([]byte("order_test123|pay_456"), "keysecret")
	result, err := svc.Verify(context.Background(), "order_test123", "pay_456", signature)
	require.NoError(t, err)
	require.Equal(t, "pay_456", result.PaymentID)
	require.Equal(t, "receipt_1_CS2026001_ab", result.Receipt)
	require.Equal(t, int64(500000), result.AmountPaise)

	require.Len(t, repo.updated, 1)
	intent := repo.updated[0]
	require.Equal(t, enums.PaymentStatusPaid, intent.Status)
	require.NotNil(t, intent.RazorpayPaymentID)
	require.Equal(t, "pay_456", *intent.RazorpayPaymentID)
	require.NotNil(t, intent.RazorpaySignature)
}

func TestVerify_InvalidSignatureMarksFailed(t *testing.T) {
	repo := newFakeRepo()
	repo.byOrderID["order_test123"] = &models.PaymentIntent{
		RazorpayOrderID: "order_test123",
		Status:          enums.PaymentStatusCreated,
	}
	svc := newTestService(t, repo, &fakeGateway{})

	_, err := svc.Verify(context.Background(), "order_test123", "pay_456", "bogus")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeSignature, typed.Code())

	require.Len(t, repo.updated, 1)
	require.Equal(t, enums.PaymentStatusFailed, repo.updated[0].Status)
	require.Nil(t, repo.updated[0].RazorpayPaymentID)
}

func TestVerify_RunsInTransaction(t *testing.T) {
	repo := newFakeRepo()
	repo.byOrderID["order_test123"] = &models.PaymentIntent{
		RazorpayOrderID: "order_test123",
		Status:          enums.PaymentStatusCreated,
	}
	tx := &fakeTxRunner{}
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Gateway: &fakeGateway{},
		Secrets: &fakeSecrets{keyID: "rzp_test_key", keySecret: "keysecret"},
		Catalog: testCatalog(),
		Tx:      tx,
	})
	require.NoError(t, err)

	signature := razorpay.SignPayload([]byte("order_test123|pay_456"), "keysecret")
	_, err = svc.Verify(context.Background(), "order_test123", "pay_456", signature)
	require.NoError(t, err)
	require.Equal(t, 1, tx.calls)
	require.Equal(t, 1, tx.committed)
	require.Len(t, repo.updated, 1)
	require.Equal(t, enums.PaymentStatusPaid, repo.updated[0].Status)
}

func TestVerify_MismatchCommitsFailedStatus(t *testing.T) {
	repo := newFakeRepo()
	repo.byOrderID["order_test123"] = &models.PaymentIntent{
		RazorpayOrderID: "order_test123",
		Status:          enums.PaymentStatusCreated,
	}
	tx := &fakeTxRunner{}
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Gateway: &fakeGateway{},
		Secrets: &fakeSecrets{keyID: "rzp_test_key", keySecret: "keysecret"},
		Catalog: testCatalog(),
		Tx:      tx,
	})
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), "order_test123", "pay_456", "bogus")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeSignature, typed.Code())

	// The failed-status write must survive the signature error.
	require.Equal(t, 1, tx.committed)
	require.Zero(t, tx.rolledBack)
	require.Len(t, repo.updated, 1)
	require.Equal(t, enums.PaymentStatusFailed, repo.updated[0].Status)
}

func TestVerify_UnknownOrder(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeGateway{})

	_, err := svc.Verify(context.Background(), "order_missing", "pay_456", "sig")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestGetByOrderID(t *testing.T) {
	repo := newFakeRepo()
	repo.byOrderID["order_test123"] = &models.PaymentIntent{RazorpayOrderID: "order_test123"}
	svc := newTestService(t, repo, &fakeGateway{})

	intent, err := svc.GetByOrderID(context.Background(), "order_test123")
	require.NoError(t, err)
	require.Equal(t, "order_test123", intent.RazorpayOrderID)

	_, err = svc.GetByOrderID(context.Background(), "order_other")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
