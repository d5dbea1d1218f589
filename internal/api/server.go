// Package api exposes the marketplace over HTTP. Routing uses the standard
// ServeMux with method patterns; trailing-slash paths are matched exactly
// with {$}.
package api

import (
	"context"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/auth"
	"github.com/tsucess/paeshift-backend-sub001/internal/database"
	"github.com/tsucess/paeshift-backend-sub001/internal/events"
	"github.com/tsucess/paeshift-backend-sub001/internal/paystack"
	"github.com/tsucess/paeshift-backend-sub001/internal/store"
	"github.com/tsucess/paeshift-backend-sub001/internal/telemetry"
)

var tracer = telemetry.GetTracer("paeshift/api")

// CachePinger reports cache reachability for the health endpoint. The Redis
// cache implements it; the in-memory fallback does not need to.
type CachePinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	store        *store.Store
	db           *database.Database
	publisher    events.Publisher
	paystack     paystack.Client
	google       *auth.GoogleClient
	cachePinger  CachePinger
	oauthStates  *stateStore
	allowedHosts []string
	logger       *zap.Logger
	mux          *http.ServeMux
}

type Options struct {
	AllowedHosts []string
}

func NewServer(
	st *store.Store,
	db *database.Database,
	pub events.Publisher,
	ps paystack.Client,
	google *auth.GoogleClient,
	cachePinger CachePinger,
	logger *zap.Logger,
	opts Options,
) *Server {
	s := &Server{
		store:        st,
		db:           db,
		publisher:    pub,
		paystack:     ps,
		google:       google,
		cachePinger:  cachePinger,
		oauthStates:  newStateStore(),
		allowedHosts: opts.AllowedHosts,
		logger:       logger,
		mux:          http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health/{$}", s.handleHealth)
	s.mux.HandleFunc("GET /api/cache/stats/{$}", s.handleCacheStats)

	s.mux.HandleFunc("POST /api/users/{$}", s.handleCreateUser)
	s.mux.HandleFunc("GET /api/users/{user_id}/{$}", s.handleGetUser)
	s.mux.HandleFunc("GET /api/users/{user_id}/payments/{$}", s.handleListUserPayments)
	s.mux.HandleFunc("GET /api/users/{user_id}/reviews/{$}", s.handleListUserReviews)

	s.mux.HandleFunc("GET /api/industries/{$}", s.handleListIndustries)
	s.mux.HandleFunc("POST /api/industries/{$}", s.handleCreateIndustry)

	s.mux.HandleFunc("GET /api/jobs/{$}", s.handleListJobs)
	s.mux.HandleFunc("POST /api/jobs/{$}", s.handleCreateJob)
	s.mux.HandleFunc("GET /api/jobs/{job_id}/{$}", s.handleGetJob)
	s.mux.HandleFunc("POST /api/jobs/{job_id}/applications/{$}", s.handleCreateApplication)
	s.mux.HandleFunc("GET /api/jobs/{job_id}/applications/{$}", s.handleListApplications)

	s.mux.HandleFunc("POST /api/payments/initialize/{$}", s.handleInitializePayment)
	s.mux.HandleFunc("GET /api/payments/{reference}/verify/{$}", s.handleVerifyPayment)

	s.mux.HandleFunc("POST /api/reviews/{$}", s.handleCreateReview)

	s.mux.HandleFunc("GET /accounts/google/login/{$}", s.handleGoogleLogin)
	s.mux.HandleFunc("GET /accounts/google/login/callback/{$}", s.handleGoogleCallback)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.hostAllowed(r.Host) {
		http.Error(w, "host not allowed", http.StatusBadRequest)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// hostAllowed mirrors the ALLOWED_HOSTS check: empty list allows everything,
// "*" is a wildcard, and ports are ignored.
func (s *Server) hostAllowed(host string) bool {
	if len(s.allowedHosts) == 0 {
		return true
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	for _, allowed := range s.allowedHosts {
		if allowed == "*" || strings.EqualFold(allowed, host) {
			return true
		}
	}
	return false
}
