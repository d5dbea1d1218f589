package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/cache"
	"github.com/tsucess/paeshift-backend-sub001/internal/database"
	"github.com/tsucess/paeshift-backend-sub001/internal/errors"
	"github.com/tsucess/paeshift-backend-sub001/internal/models"
	"github.com/tsucess/paeshift-backend-sub001/internal/telemetry"
)

func (s *Store) CreateIndustry(ctx context.Context, name string) (*models.JobIndustry, error) {
	if name == "" {
		return nil, errors.InvalidInput("industry name is required", nil)
	}

	industry := &models.JobIndustry{Name: name}
	if s.db.Backend() == database.BackendPostgres {
		err := s.db.DB().QueryRowContext(ctx,
			"INSERT INTO job_industries (name) VALUES ($1) RETURNING id", name,
		).Scan(&industry.ID)
		if err != nil {
			return nil, errors.Internal("inserting industry", err)
		}
		return industry, nil
	}

	res, err := s.db.DB().ExecContext(ctx,
		"INSERT INTO job_industries (name) VALUES (?)", name)
	if err != nil {
		return nil, errors.Internal("inserting industry", err)
	}
	industry.ID, _ = res.LastInsertId()
	return industry, nil
}

func (s *Store) CreateSubCategory(ctx context.Context, industryID int64, name string) (*models.JobSubCategory, error) {
	if name == "" {
		return nil, errors.InvalidInput("subcategory name is required", nil)
	}

	sub := &models.JobSubCategory{IndustryID: industryID, Name: name}
	if s.db.Backend() == database.BackendPostgres {
		err := s.db.DB().QueryRowContext(ctx,
			"INSERT INTO job_subcategories (industry_id, name) VALUES ($1, $2) RETURNING id",
			industryID, name,
		).Scan(&sub.ID)
		if err != nil {
			return nil, errors.Internal("inserting subcategory", err)
		}
		return sub, nil
	}

	res, err := s.db.DB().ExecContext(ctx,
		"INSERT INTO job_subcategories (industry_id, name) VALUES (?, ?)", industryID, name)
	if err != nil {
		return nil, errors.Internal("inserting subcategory", err)
	}
	sub.ID, _ = res.LastInsertId()
	return sub, nil
}

func (s *Store) ListIndustries(ctx context.Context) ([]models.JobIndustry, error) {
	rows, err := s.db.DB().QueryContext(ctx, "SELECT id, name FROM job_industries ORDER BY name")
	if err != nil {
		return nil, errors.Internal("listing industries", err)
	}
	defer rows.Close()

	var industries []models.JobIndustry
	for rows.Next() {
		var ind models.JobIndustry
		if err := rows.Scan(&ind.ID, &ind.Name); err != nil {
			return nil, errors.Internal("scanning industry", err)
		}
		industries = append(industries, ind)
	}
	return industries, rows.Err()
}

func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	ctx, span := tracer.Start(ctx, "Store.CreateJob")
	defer span.End()

	if job.Title == "" {
		return errors.InvalidInput("job title is required", nil)
	}
	if job.PostedByID == "" {
		return errors.InvalidInput("posted_by_id is required", nil)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.JobStatusOpen
	}
	if job.PaymentType == "" {
		job.PaymentType = models.PaymentTypeFixed
	}
	if job.ApplicantsNeeded == 0 {
		job.ApplicantsNeeded = 1
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	_, err := s.db.DB().ExecContext(ctx, s.rebind(`
		INSERT INTO jobs (
			id, posted_by, industry_id, subcategory_id, title, description,
			location, rate_amount, rate_currency, payment_type, status,
			applicants_needed, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		job.ID, job.PostedByID, job.IndustryID, job.SubCategoryID, job.Title,
		job.Description, job.Location, job.RateAmount, job.RateCurrency,
		job.PaymentType, job.Status, job.ApplicantsNeeded, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		return errors.Internal("inserting job", err)
	}

	return nil
}

// GetJob serves the job detail read. The poster, industry, and subcategory
// come back in the same query, and the assembled aggregate is cached.
func (s *Store) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	ctx, span := tracer.Start(ctx, "Store.GetJob")
	span.SetAttributes(telemetry.String("job.id", jobID))
	defer span.End()

	key := cache.JobKey(jobID)
	var cached models.Job
	switch err := s.cache.Get(ctx, key, &cached); err {
	case nil:
		s.stats.Hit()
		span.SetAttributes(telemetry.String("cache", "hit"))
		return &cached, nil
	case cache.ErrNotFound:
		s.stats.Miss()
	default:
		s.stats.Error()
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	row := s.db.DB().QueryRowContext(ctx, s.rebind(`
		SELECT j.id, j.posted_by, j.industry_id, j.subcategory_id, j.title,
		       j.description, j.location, j.rate_amount, j.rate_currency,
		       j.payment_type, j.status, j.applicants_needed, j.created_at, j.updated_at,
		       u.id, u.email, u.first_name, u.last_name, u.created_at,
		       i.id, i.name,
		       sc.id, sc.industry_id, sc.name
		FROM jobs j
		JOIN users u ON u.id = j.posted_by
		JOIN job_industries i ON i.id = j.industry_id
		JOIN job_subcategories sc ON sc.id = j.subcategory_id
		WHERE j.id = ?
	`), jobID)

	var job models.Job
	var poster models.User
	var industry models.JobIndustry
	var sub models.JobSubCategory
	err := row.Scan(
		&job.ID, &job.PostedByID, &job.IndustryID, &job.SubCategoryID, &job.Title,
		&job.Description, &job.Location, &job.RateAmount, &job.RateCurrency,
		&job.PaymentType, &job.Status, &job.ApplicantsNeeded, &job.CreatedAt, &job.UpdatedAt,
		&poster.ID, &poster.Email, &poster.FirstName, &poster.LastName, &poster.CreatedAt,
		&industry.ID, &industry.Name,
		&sub.ID, &sub.IndustryID, &sub.Name,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("job not found", err)
	}
	if err != nil {
		span.RecordError(err)
		return nil, errors.Internal("loading job", err)
	}

	job.PostedBy = &poster
	job.Industry = &industry
	job.SubCategory = &sub

	if err := s.cache.Set(ctx, key, job, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}

	return &job, nil
}

type JobFilter struct {
	IndustryID int64
	Status     models.JobStatus
	Limit      int
}

func (s *Store) ListJobs(ctx context.Context, filter JobFilter) ([]models.Job, error) {
	query := `
		SELECT id, posted_by, industry_id, subcategory_id, title, description,
		       location, rate_amount, rate_currency, payment_type, status,
		       applicants_needed, created_at, updated_at
		FROM jobs WHERE 1=1
	`
	var args []interface{}
	if filter.IndustryID != 0 {
		query += " AND industry_id = ?"
		args = append(args, filter.IndustryID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.DB().QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, errors.Internal("listing jobs", err)
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		var job models.Job
		if err := rows.Scan(
			&job.ID, &job.PostedByID, &job.IndustryID, &job.SubCategoryID, &job.Title,
			&job.Description, &job.Location, &job.RateAmount, &job.RateCurrency,
			&job.PaymentType, &job.Status, &job.ApplicantsNeeded, &job.CreatedAt, &job.UpdatedAt,
		); err != nil {
			return nil, errors.Internal("scanning job", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus) error {
	res, err := s.db.DB().ExecContext(ctx,
		s.rebind("UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?"),
		status, time.Now().UTC(), jobID)
	if err != nil {
		return errors.Internal("updating job status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("job not found", nil)
	}

	if err := s.cache.Delete(ctx, cache.JobKey(jobID)); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("job_id", jobID), zap.Error(err))
	}
	return nil
}
