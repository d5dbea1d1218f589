package store

import (
	"context"
	"time"

	"github.com/tsucess/paeshift-backend-sub001/internal/database"
	"github.com/tsucess/paeshift-backend-sub001/internal/errors"
	"github.com/tsucess/paeshift-backend-sub001/internal/models"
)

func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	ctx, span := tracer.Start(ctx, "Store.CreateReview")
	defer span.End()

	if review.ReviewerID == "" || review.ReviewedID == "" || review.JobID == "" {
		return errors.InvalidInput("reviewer_id, reviewed_id and job_id are required", nil)
	}
	if review.ReviewerID == review.ReviewedID {
		return errors.InvalidInput("cannot review yourself", nil)
	}
	if review.Rating < 1 || review.Rating > 5 {
		return errors.InvalidInput("rating must be between 1 and 5", nil)
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	var exists bool
	err := s.db.DB().QueryRowContext(ctx, s.rebind(
		"SELECT EXISTS (SELECT 1 FROM reviews WHERE job_id = ? AND reviewer_id = ?)"),
		review.JobID, review.ReviewerID,
	).Scan(&exists)
	if err != nil {
		return errors.Internal("checking existing review", err)
	}
	if exists {
		return errors.Duplicate("already reviewed this job", nil)
	}

	if s.db.Backend() == database.BackendPostgres {
		err = s.db.DB().QueryRowContext(ctx, `
			INSERT INTO reviews (reviewer_id, reviewed_id, job_id, rating, comment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id
		`, review.ReviewerID, review.ReviewedID, review.JobID, review.Rating,
			review.Comment, review.CreatedAt).Scan(&review.ID)
		if err != nil {
			span.RecordError(err)
			if isUniqueViolation(err) {
				return errors.Duplicate("already reviewed this job", err)
			}
			return errors.Internal("inserting review", err)
		}
		return nil
	}

	res, err := s.db.DB().ExecContext(ctx, `
		INSERT INTO reviews (reviewer_id, reviewed_id, job_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, review.ReviewerID, review.ReviewedID, review.JobID, review.Rating,
		review.Comment, review.CreatedAt)
	if err != nil {
		span.RecordError(err)
		if isUniqueViolation(err) {
			return errors.Duplicate("already reviewed this job", err)
		}
		return errors.Internal("inserting review", err)
	}
	review.ID, _ = res.LastInsertId()
	return nil
}

// ListUserReviews returns reviews received by a user, reviewer joined in.
func (s *Store) ListUserReviews(ctx context.Context, userID string) ([]models.Review, error) {
	rows, err := s.db.DB().QueryContext(ctx, s.rebind(`
		SELECT r.id, r.reviewer_id, r.reviewed_id, r.job_id, r.rating, r.comment, r.created_at,
		       u.id, u.email, u.first_name, u.last_name, u.created_at
		FROM reviews r
		JOIN users u ON u.id = r.reviewer_id
		WHERE r.reviewed_id = ?
		ORDER BY r.created_at DESC
	`), userID)
	if err != nil {
		return nil, errors.Internal("listing reviews", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var review models.Review
		var reviewer models.User
		if err := rows.Scan(
			&review.ID, &review.ReviewerID, &review.ReviewedID, &review.JobID,
			&review.Rating, &review.Comment, &review.CreatedAt,
			&reviewer.ID, &reviewer.Email, &reviewer.FirstName, &reviewer.LastName, &reviewer.CreatedAt,
		); err != nil {
			return nil, errors.Internal("scanning review", err)
		}
		review.Reviewer = &reviewer
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}
