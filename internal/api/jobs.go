package api

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/errors"
	"github.com/tsucess/paeshift-backend-sub001/internal/events"
	"github.com/tsucess/paeshift-backend-sub001/internal/models"
	"github.com/tsucess/paeshift-backend-sub001/internal/store"
)

type createIndustryRequest struct {
	Name          string   `json:"name"`
	SubCategories []string `json:"subcategories,omitempty"`
}

func (s *Server) handleCreateIndustry(w http.ResponseWriter, r *http.Request) {
	var req createIndustryRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	industry, err := s.store.CreateIndustry(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	subs := make([]models.JobSubCategory, 0, len(req.SubCategories))
	for _, name := range req.SubCategories {
		sub, err := s.store.CreateSubCategory(r.Context(), industry.ID, name)
		if err != nil {
			s.writeError(w, err)
			return
		}
		subs = append(subs, *sub)
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"industry":      industry,
		"subcategories": subs,
	})
}

func (s *Server) handleListIndustries(w http.ResponseWriter, r *http.Request) {
	industries, err := s.store.ListIndustries(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"industries": industries})
}

type createJobRequest struct {
	PostedByID       string  `json:"posted_by_id"`
	IndustryID       int64   `json:"industry_id"`
	SubCategoryID    int64   `json:"subcategory_id"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Location         string  `json:"location"`
	RateAmount       float64 `json:"rate_amount"`
	RateCurrency     string  `json:"rate_currency"`
	PaymentType      string  `json:"payment_type"`
	ApplicantsNeeded int     `json:"applicants_needed"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleCreateJob")
	defer span.End()

	var req createJobRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	job := &models.Job{
		PostedByID:       req.PostedByID,
		IndustryID:       req.IndustryID,
		SubCategoryID:    req.SubCategoryID,
		Title:            req.Title,
		Description:      req.Description,
		Location:         req.Location,
		RateAmount:       req.RateAmount,
		RateCurrency:     req.RateCurrency,
		PaymentType:      models.PaymentType(req.PaymentType),
		ApplicantsNeeded: req.ApplicantsNeeded,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.publisher.Publish(ctx, events.SubjectJobCreated, events.JobCreatedEvent{
		JobID:      job.ID,
		PostedByID: job.PostedByID,
		Title:      job.Title,
		CreatedAt:  job.CreatedAt,
	}); err != nil {
		s.logger.Warn("failed to publish job created event",
			zap.String("job_id", job.ID), zap.Error(err))
	}

	s.writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleGetJob")
	defer span.End()

	job, err := s.store.GetJob(ctx, r.PathValue("job_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	filter := store.JobFilter{
		Status: models.JobStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("industry_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeError(w, errors.InvalidInput("industry_id must be an integer", err))
			return
		}
		filter.IndustryID = id
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}

	jobs, err := s.store.ListJobs(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
}

type createApplicationRequest struct {
	ApplicantID string `json:"applicant_id"`
	CoverNote   string `json:"cover_note"`
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	app := &models.Application{
		JobID:       r.PathValue("job_id"),
		ApplicantID: req.ApplicantID,
		CoverNote:   req.CoverNote,
	}
	if err := s.store.CreateApplication(r.Context(), app); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.publisher.Publish(r.Context(), events.SubjectApplicationSubmitted, events.ApplicationSubmittedEvent{
		ApplicationID: app.ID,
		JobID:         app.JobID,
		ApplicantID:   app.ApplicantID,
		AppliedAt:     app.AppliedAt,
	}); err != nil {
		s.logger.Warn("failed to publish application event",
			zap.Int64("application_id", app.ID), zap.Error(err))
	}

	s.writeJSON(w, http.StatusCreated, app)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.store.ListJobApplications(r.Context(), r.PathValue("job_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"applications": apps})
}
