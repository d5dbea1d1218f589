package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/tsucess/paeshift-backend-sub001/internal/auth"
	"github.com/tsucess/paeshift-backend-sub001/internal/errors"
	"github.com/tsucess/paeshift-backend-sub001/internal/models"
)

const stateTTL = 10 * time.Minute

// stateStore holds outstanding OAuth state nonces. A nonce is single-use.
type stateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

func newStateStore() *stateStore {
	return &stateStore{states: make(map[string]time.Time)}
}

func (s *stateStore) add(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, deadline := range s.states {
		if now.After(deadline) {
			delete(s.states, k)
		}
	}
	s.states[state] = now.Add(stateTTL)
}

func (s *stateStore) consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return time.Now().Before(deadline)
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := auth.NewState()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.oauthStates.add(state)

	http.Redirect(w, r, s.google.AuthURL(state), http.StatusFound)
}

type googleCallbackResponse struct {
	User *models.User `json:"user"`
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleGoogleCallback")
	defer span.End()

	// Google redirects here only for an exactly-registered URI; reject
	// anything that reached us through a different path.
	callbackURL := "http://" + r.Host + r.URL.Path
	if r.TLS != nil {
		callbackURL = "https://" + r.Host + r.URL.Path
	}
	if err := s.google.ValidateRedirect(callbackURL); err != nil {
		s.writeError(w, err)
		return
	}

	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		s.writeError(w, errors.Unauthorized("google login denied: "+errParam, nil))
		return
	}
	if !s.oauthStates.consume(q.Get("state")) {
		s.writeError(w, errors.Unauthorized("unknown or expired oauth state", nil))
		return
	}

	info, err := s.google.Exchange(ctx, q.Get("code"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	user, err := s.store.UpsertGoogleUser(ctx, info.Sub, info.Email, info.GivenName, info.FamilyName)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, googleCallbackResponse{User: user})
}
