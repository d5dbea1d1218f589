package api

import (
	"net/http"

	"github.com/tsucess/paeshift-backend-sub001/internal/models"
)

type createUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	user := &models.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, user)
}

type userResponse struct {
	User    *models.User    `json:"user"`
	Profile *models.Profile `json:"profile"`
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, profile, err := s.store.GetUser(r.Context(), r.PathValue("user_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, userResponse{User: user, Profile: profile})
}

func (s *Server) handleListUserPayments(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleListUserPayments")
	defer span.End()

	payments, err := s.store.ListUserPayments(ctx, r.PathValue("user_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, models.PaymentList{Payments: payments})
}

func (s *Server) handleListUserReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.store.ListUserReviews(r.Context(), r.PathValue("user_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}
