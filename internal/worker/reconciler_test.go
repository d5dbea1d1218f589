package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/cache"
	"github.com/tsucess/paeshift-backend-sub001/internal/database"
	"github.com/tsucess/paeshift-backend-sub001/internal/database/schema"
	"github.com/tsucess/paeshift-backend-sub001/internal/database/schema/migrations"
	"github.com/tsucess/paeshift-backend-sub001/internal/errors"
	"github.com/tsucess/paeshift-backend-sub001/internal/events"
	"github.com/tsucess/paeshift-backend-sub001/internal/models"
	"github.com/tsucess/paeshift-backend-sub001/internal/paystack"
	"github.com/tsucess/paeshift-backend-sub001/internal/store"
)

type fakePaystack struct {
	statuses map[string]string
	err      error
}

func (f *fakePaystack) InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResponse, error) {
	return &paystack.InitializeResponse{Reference: req.Reference}, nil
}

func (f *fakePaystack) VerifyTransaction(ctx context.Context, reference string) (*paystack.VerifyResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &paystack.VerifyResponse{Status: f.statuses[reference], Reference: reference}, nil
}

type capturingPublisher struct {
	subjects []string
}

func (p *capturingPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *capturingPublisher) Close() {}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(ctx, database.Options{
		SQLitePath: filepath.Join(t.TempDir(), "worker_test.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, schema.NewMigrator(db, zap.NewNop()).ApplyAll(ctx, migrations.All()))

	mem := cache.NewMemory(cache.Options{})
	t.Cleanup(func() { _ = mem.Close() })

	return store.New(db, mem, zap.NewNop(), store.Options{})
}

func seedPendingPayment(t *testing.T, st *store.Store, reference string) *models.Payment {
	t.Helper()
	ctx := context.Background()

	payer := &models.User{Email: reference + "-payer@example.com"}
	require.NoError(t, st.CreateUser(ctx, payer))
	recipient := &models.User{Email: reference + "-recipient@example.com"}
	require.NoError(t, st.CreateUser(ctx, recipient))

	industry, err := st.CreateIndustry(ctx, "Cleaning-"+reference)
	require.NoError(t, err)
	sub, err := st.CreateSubCategory(ctx, industry.ID, "Home")
	require.NoError(t, err)

	job := &models.Job{
		PostedByID:    payer.ID,
		IndustryID:    industry.ID,
		SubCategoryID: sub.ID,
		Title:         "Deep clean",
	}
	require.NoError(t, st.CreateJob(ctx, job))

	payment := &models.Payment{
		PayerID:     payer.ID,
		RecipientID: recipient.ID,
		JobID:       job.ID,
		Amount:      20000,
		Reference:   reference,
		CreatedAt:   time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, st.CreatePayment(ctx, payment))
	return payment
}

func TestReconcileOnceCompletesSuccessfulPayments(t *testing.T) {
	st := newTestStore(t)
	pub := &capturingPublisher{}
	seedPendingPayment(t, st, "ref-success")

	r := NewReconciler(st, &fakePaystack{statuses: map[string]string{"ref-success": "success"}},
		pub, zap.NewNop(), Options{Grace: time.Minute})

	require.NoError(t, r.ReconcileOnce(context.Background()))

	got, err := st.GetPaymentByReference(context.Background(), "ref-success")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, got.Status)
	assert.Equal(t, []string{events.SubjectPaymentCompleted}, pub.subjects)
}

func TestReconcileOnceFailsAbandonedPayments(t *testing.T) {
	st := newTestStore(t)
	pub := &capturingPublisher{}
	seedPendingPayment(t, st, "ref-gone")

	r := NewReconciler(st, &fakePaystack{statuses: map[string]string{"ref-gone": "abandoned"}},
		pub, zap.NewNop(), Options{Grace: time.Minute})

	require.NoError(t, r.ReconcileOnce(context.Background()))

	got, err := st.GetPaymentByReference(context.Background(), "ref-gone")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, got.Status)
	assert.Empty(t, pub.subjects)
}

func TestReconcileOnceLeavesPendingOnVerifyError(t *testing.T) {
	st := newTestStore(t)
	seedPendingPayment(t, st, "ref-err")

	r := NewReconciler(st, &fakePaystack{err: errors.Unavailable("down", nil)},
		&capturingPublisher{}, zap.NewNop(), Options{Grace: time.Minute})

	require.NoError(t, r.ReconcileOnce(context.Background()))

	got, err := st.GetPaymentByReference(context.Background(), "ref-err")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, got.Status)
}

func TestReconcileOnceRespectsGracePeriod(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	// seeded an hour ago, still inside a two-hour grace window
	payment := seedPendingPayment(t, st, "ref-fresh")

	r := NewReconciler(st, &fakePaystack{statuses: map[string]string{"ref-fresh": "success"}},
		&capturingPublisher{}, zap.NewNop(), Options{Grace: 2 * time.Hour})

	require.NoError(t, r.ReconcileOnce(ctx))

	got, err := st.GetPaymentByReference(ctx, payment.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, got.Status)
}
