package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/auth"
	"github.com/tsucess/paeshift-backend-sub001/internal/cache"
	"github.com/tsucess/paeshift-backend-sub001/internal/database"
	"github.com/tsucess/paeshift-backend-sub001/internal/database/schema"
	"github.com/tsucess/paeshift-backend-sub001/internal/database/schema/migrations"
	"github.com/tsucess/paeshift-backend-sub001/internal/models"
	"github.com/tsucess/paeshift-backend-sub001/internal/paystack"
	"github.com/tsucess/paeshift-backend-sub001/internal/store"
)

type fakePaystack struct {
	verifyStatus string
	initCalls    int
}

func (f *fakePaystack) InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResponse, error) {
	f.initCalls++
	return &paystack.InitializeResponse{
		AuthorizationURL: "https://checkout.paystack.com/" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (f *fakePaystack) VerifyTransaction(ctx context.Context, reference string) (*paystack.VerifyResponse, error) {
	return &paystack.VerifyResponse{Status: f.verifyStatus, Reference: reference}, nil
}

type testEnv struct {
	server   *Server
	store    *store.Store
	paystack *fakePaystack
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(ctx, database.Options{
		SQLitePath: filepath.Join(t.TempDir(), "api_test.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, schema.NewMigrator(db, zap.NewNop()).ApplyAll(ctx, migrations.All()))

	mem := cache.NewMemory(cache.Options{})
	t.Cleanup(func() { _ = mem.Close() })

	st := store.New(db, mem, zap.NewNop(), store.Options{})
	ps := &fakePaystack{verifyStatus: "success"}
	google := auth.NewGoogleClient(auth.Options{
		ClientID:    "client-id",
		RedirectURL: "http://example.com/accounts/google/login/callback/",
	}, zap.NewNop())

	srv := NewServer(st, db, nopPublisher{}, ps, google, nil, zap.NewNop(), Options{})
	return &testEnv{server: srv, store: st, paystack: ps}
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	return nil
}
func (nopPublisher) Close() {}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func (e *testEnv) seedUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email}
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}

func (e *testEnv) seedJob(t *testing.T, posterID string) *models.Job {
	t.Helper()
	ctx := context.Background()
	industry, err := e.store.CreateIndustry(ctx, "Hospitality-"+posterID)
	require.NoError(t, err)
	sub, err := e.store.CreateSubCategory(ctx, industry.ID, "Waitstaff")
	require.NoError(t, err)

	job := &models.Job{
		PostedByID:    posterID,
		IndustryID:    industry.ID,
		SubCategoryID: sub.ID,
		Title:         "Weekend waiter",
		RateAmount:    8000,
	}
	require.NoError(t, e.store.CreateJob(ctx, job))
	return job
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/health/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "sqlite", resp.Backend)
	assert.Equal(t, "in-memory", resp.Cache)
}

func TestCreateAndGetUser(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/users/", map[string]string{
		"email":      "ada@example.com",
		"first_name": "Ada",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.User
	decodeInto(t, rec, &created)
	require.NotEmpty(t, created.ID)

	rec = env.do(t, http.MethodGet, "/api/users/"+created.ID+"/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp userResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	require.NotNil(t, resp.Profile)
}

func TestCreateUserDuplicateReturns400(t *testing.T) {
	env := newTestServer(t)
	env.seedUser(t, "dup@example.com")

	rec := env.do(t, http.MethodPost, "/api/users/", map[string]string{"email": "dup@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	decodeInto(t, rec, &body)
	assert.Equal(t, "DUPLICATE", body.Error.Type)
}

func TestGetJobNotFound(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/jobs/4f6c4c1e-0000-0000-0000-000000000000/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAndGetJob(t *testing.T) {
	env := newTestServer(t)
	poster := env.seedUser(t, "poster@example.com")
	ctx := context.Background()

	industry, err := env.store.CreateIndustry(ctx, "Logistics")
	require.NoError(t, err)
	sub, err := env.store.CreateSubCategory(ctx, industry.ID, "Dispatch")
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/jobs/", createJobRequest{
		PostedByID:    poster.ID,
		IndustryID:    industry.ID,
		SubCategoryID: sub.ID,
		Title:         "Dispatch rider",
		RateAmount:    12000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var job models.Job
	decodeInto(t, rec, &job)
	assert.Equal(t, models.JobStatusOpen, job.Status)

	rec = env.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Job
	decodeInto(t, rec, &got)
	require.NotNil(t, got.PostedBy)
	assert.Equal(t, poster.ID, got.PostedBy.ID)
	require.NotNil(t, got.Industry)
	assert.Equal(t, "Logistics", got.Industry.Name)
}

func TestListJobsWithFilter(t *testing.T) {
	env := newTestServer(t)
	poster := env.seedUser(t, "poster@example.com")
	job := env.seedJob(t, poster.ID)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/jobs/?industry_id=%d&status=open", job.IndustryID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Jobs []models.Job `json:"jobs"`
	}
	decodeInto(t, rec, &resp)
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, job.ID, resp.Jobs[0].ID)

	rec = env.do(t, http.MethodGet, "/api/jobs/?industry_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplicationFlow(t *testing.T) {
	env := newTestServer(t)
	poster := env.seedUser(t, "poster@example.com")
	worker := env.seedUser(t, "worker@example.com")
	job := env.seedJob(t, poster.ID)

	rec := env.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/applications/",
		createApplicationRequest{ApplicantID: worker.ID, CoverNote: "evenings only"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// duplicate application
	rec = env.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/applications/",
		createApplicationRequest{ApplicantID: worker.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/applications/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Applications []models.Application `json:"applications"`
	}
	decodeInto(t, rec, &resp)
	require.Len(t, resp.Applications, 1)
	require.NotNil(t, resp.Applications[0].Applicant)
	assert.Equal(t, worker.ID, resp.Applications[0].Applicant.ID)
}

func TestPaymentInitializeAndVerify(t *testing.T) {
	env := newTestServer(t)
	payer := env.seedUser(t, "payer@example.com")
	recipient := env.seedUser(t, "recipient@example.com")
	job := env.seedJob(t, payer.ID)

	rec := env.do(t, http.MethodPost, "/api/payments/initialize/", initializePaymentRequest{
		PayerID:     payer.ID,
		RecipientID: recipient.ID,
		JobID:       job.ID,
		Amount:      8000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, env.paystack.initCalls)

	var initResp initializePaymentResponse
	decodeInto(t, rec, &initResp)
	require.NotNil(t, initResp.Payment)
	assert.Contains(t, initResp.AuthorizationURL, initResp.Payment.Reference)
	assert.Equal(t, models.PaymentStatusPending, initResp.Payment.Status)

	rec = env.do(t, http.MethodGet, "/api/payments/"+initResp.Payment.Reference+"/verify/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var verifyResp verifyPaymentResponse
	decodeInto(t, rec, &verifyResp)
	assert.Equal(t, models.PaymentStatusSuccess, verifyResp.Payment.Status)
	require.NotNil(t, verifyResp.Payment.VerifiedAt)

	// the user payment listing picks up the settled payment with relations
	rec = env.do(t, http.MethodGet, "/api/users/"+payer.ID+"/payments/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list models.PaymentList
	decodeInto(t, rec, &list)
	require.Len(t, list.Payments, 1)
	assert.Equal(t, job.Title, list.Payments[0].JobTitle)
	require.NotNil(t, list.Payments[0].Recipient)
}

func TestVerifyUnknownPaymentReturns404(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/payments/nope/verify/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReviewValidation(t *testing.T) {
	env := newTestServer(t)
	poster := env.seedUser(t, "poster@example.com")
	worker := env.seedUser(t, "worker@example.com")
	job := env.seedJob(t, poster.ID)

	rec := env.do(t, http.MethodPost, "/api/reviews/", createReviewRequest{
		ReviewerID: poster.ID,
		ReviewedID: worker.ID,
		JobID:      job.ID,
		Rating:     9,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/reviews/", createReviewRequest{
		ReviewerID: poster.ID,
		ReviewedID: worker.ID,
		JobID:      job.ID,
		Rating:     5,
		Comment:    "excellent work",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/users/"+worker.ID+"/reviews/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reviews []models.Review `json:"reviews"`
	}
	decodeInto(t, rec, &resp)
	require.Len(t, resp.Reviews, 1)
	assert.Equal(t, 5, resp.Reviews[0].Rating)
}

func TestCacheStatsEndpoint(t *testing.T) {
	env := newTestServer(t)
	poster := env.seedUser(t, "poster@example.com")
	job := env.seedJob(t, poster.ID)

	env.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/", nil)
	env.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/", nil)

	rec := env.do(t, http.MethodGet, "/api/cache/stats/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap cache.StatsSnapshot
	decodeInto(t, rec, &snap)
	assert.Equal(t, int64(1), snap.Hits)
	assert.Equal(t, int64(1), snap.Misses)
	assert.InDelta(t, 0.5, snap.HitRate, 1e-9)
}

func TestGoogleLoginRedirects(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/accounts/google/login/", nil)
	require.Equal(t, http.StatusFound, rec.Code)

	loc := rec.Header().Get("Location")
	assert.Contains(t, loc, "accounts.google.com")
	assert.Contains(t, loc, "client-id")
	assert.Contains(t, loc, "state=")
}

func TestGoogleCallbackRejectsUnknownState(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/accounts/google/login/callback/?state=forged&code=x", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAllowedHostsRejection(t *testing.T) {
	env := newTestServer(t)
	env.server.allowedHosts = []string{"api.paeshift.com"}

	rec := env.do(t, http.MethodGet, "/api/health/", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.server.allowedHosts = []string{"example.com"}
	rec = env.do(t, http.MethodGet, "/api/health/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
