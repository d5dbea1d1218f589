package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/events"
	"github.com/tsucess/paeshift-backend-sub001/internal/models"
)

type createReviewRequest struct {
	ReviewerID string `json:"reviewer_id"`
	ReviewedID string `json:"reviewed_id"`
	JobID      string `json:"job_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	review := &models.Review{
		ReviewerID: req.ReviewerID,
		ReviewedID: req.ReviewedID,
		JobID:      req.JobID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := s.store.CreateReview(r.Context(), review); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.publisher.Publish(r.Context(), events.SubjectReviewCreated, events.ReviewCreatedEvent{
		ReviewID:   review.ID,
		ReviewerID: review.ReviewerID,
		ReviewedID: review.ReviewedID,
		JobID:      review.JobID,
		Rating:     review.Rating,
		CreatedAt:  review.CreatedAt,
	}); err != nil {
		s.logger.Warn("failed to publish review event",
			zap.Int64("review_id", review.ID), zap.Error(err))
	}

	s.writeJSON(w, http.StatusCreated, review)
}
