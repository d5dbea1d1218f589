package store

import (
	"context"
	"time"

	"github.com/tsucess/paeshift-backend-sub001/internal/database"
	"github.com/tsucess/paeshift-backend-sub001/internal/errors"
	"github.com/tsucess/paeshift-backend-sub001/internal/models"
)

func (s *Store) CreateApplication(ctx context.Context, app *models.Application) error {
	ctx, span := tracer.Start(ctx, "Store.CreateApplication")
	defer span.End()

	if app.JobID == "" || app.ApplicantID == "" {
		return errors.InvalidInput("job_id and applicant_id are required", nil)
	}
	if app.Status == "" {
		app.Status = models.ApplicationStatusPending
	}
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now().UTC()
	}

	job, err := s.GetJob(ctx, app.JobID)
	if err != nil {
		return err
	}
	if job.Status != models.JobStatusOpen {
		return errors.InvalidInput("job is not open for applications", nil)
	}
	if job.PostedByID == app.ApplicantID {
		return errors.InvalidInput("cannot apply to your own job", nil)
	}

	var exists bool
	err = s.db.DB().QueryRowContext(ctx, s.rebind(
		"SELECT EXISTS (SELECT 1 FROM applications WHERE job_id = ? AND applicant_id = ?)"),
		app.JobID, app.ApplicantID,
	).Scan(&exists)
	if err != nil {
		return errors.Internal("checking existing application", err)
	}
	if exists {
		return errors.Duplicate("already applied to this job", nil)
	}

	if s.db.Backend() == database.BackendPostgres {
		err = s.db.DB().QueryRowContext(ctx, `
			INSERT INTO applications (job_id, applicant_id, cover_note, status, applied_at)
			VALUES ($1, $2, $3, $4, $5) RETURNING id
		`, app.JobID, app.ApplicantID, app.CoverNote, app.Status, app.AppliedAt).Scan(&app.ID)
		if err != nil {
			span.RecordError(err)
			if isUniqueViolation(err) {
				return errors.Duplicate("already applied to this job", err)
			}
			return errors.Internal("inserting application", err)
		}
		return nil
	}

	res, err := s.db.DB().ExecContext(ctx, `
		INSERT INTO applications (job_id, applicant_id, cover_note, status, applied_at)
		VALUES (?, ?, ?, ?, ?)
	`, app.JobID, app.ApplicantID, app.CoverNote, app.Status, app.AppliedAt)
	if err != nil {
		span.RecordError(err)
		if isUniqueViolation(err) {
			return errors.Duplicate("already applied to this job", err)
		}
		return errors.Internal("inserting application", err)
	}
	app.ID, _ = res.LastInsertId()
	return nil
}

// ListJobApplications joins applicant fields so the listing never does a
// per-application user lookup.
func (s *Store) ListJobApplications(ctx context.Context, jobID string) ([]models.Application, error) {
	rows, err := s.db.DB().QueryContext(ctx, s.rebind(`
		SELECT a.id, a.job_id, a.applicant_id, a.cover_note, a.status, a.applied_at,
		       u.id, u.email, u.first_name, u.last_name, u.created_at
		FROM applications a
		JOIN users u ON u.id = a.applicant_id
		WHERE a.job_id = ?
		ORDER BY a.applied_at DESC
	`), jobID)
	if err != nil {
		return nil, errors.Internal("listing applications", err)
	}
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		var app models.Application
		var applicant models.User
		if err := rows.Scan(
			&app.ID, &app.JobID, &app.ApplicantID, &app.CoverNote, &app.Status, &app.AppliedAt,
			&applicant.ID, &applicant.Email, &applicant.FirstName, &applicant.LastName, &applicant.CreatedAt,
		); err != nil {
			return nil, errors.Internal("scanning application", err)
		}
		app.Applicant = &applicant
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, applicationID int64, status models.ApplicationStatus) error {
	res, err := s.db.DB().ExecContext(ctx,
		s.rebind("UPDATE applications SET status = ? WHERE id = ?"), status, applicationID)
	if err != nil {
		return errors.Internal("updating application status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("application not found", nil)
	}
	return nil
}
