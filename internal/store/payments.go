package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/cache"
	"github.com/tsucess/paeshift-backend-sub001/internal/errors"
	"github.com/tsucess/paeshift-backend-sub001/internal/models"
	"github.com/tsucess/paeshift-backend-sub001/internal/telemetry"
)

func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	ctx, span := tracer.Start(ctx, "Store.CreatePayment")
	span.SetAttributes(telemetry.Float64("payment.amount", payment.Amount))
	defer span.End()

	if payment.PayerID == "" || payment.RecipientID == "" || payment.JobID == "" {
		return errors.InvalidInput("payer_id, recipient_id and job_id are required", nil)
	}
	if payment.Amount <= 0 {
		return errors.InvalidInput("amount must be positive", nil)
	}
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.Reference == "" {
		payment.Reference = uuid.NewString()
	}
	if payment.Currency == "" {
		payment.Currency = "NGN"
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.DB().ExecContext(ctx, s.rebind(`
		INSERT INTO payments (id, payer_id, recipient_id, job_id, amount, currency, reference, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		payment.ID, payment.PayerID, payment.RecipientID, payment.JobID,
		payment.Amount, payment.Currency, payment.Reference, payment.Status, payment.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		return errors.Internal("inserting payment", err)
	}

	s.invalidateUserPayments(ctx, payment.PayerID, payment.RecipientID)
	return nil
}

func (s *Store) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	row := s.db.DB().QueryRowContext(ctx, s.rebind(`
		SELECT id, payer_id, recipient_id, job_id, amount, currency, reference, status, created_at, verified_at
		FROM payments WHERE reference = ?
	`), reference)

	var payment models.Payment
	var verifiedAt sql.NullTime
	err := row.Scan(
		&payment.ID, &payment.PayerID, &payment.RecipientID, &payment.JobID,
		&payment.Amount, &payment.Currency, &payment.Reference, &payment.Status,
		&payment.CreatedAt, &verifiedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("payment not found", err)
	}
	if err != nil {
		return nil, errors.Internal("loading payment", err)
	}
	if verifiedAt.Valid {
		payment.VerifiedAt = &verifiedAt.Time
	}

	return &payment, nil
}

// MarkPaymentStatus records the verification outcome and stamps verified_at.
func (s *Store) MarkPaymentStatus(ctx context.Context, reference string, status models.PaymentStatus) error {
	res, err := s.db.DB().ExecContext(ctx,
		s.rebind("UPDATE payments SET status = ?, verified_at = ? WHERE reference = ?"),
		status, time.Now().UTC(), reference)
	if err != nil {
		return errors.Internal("updating payment status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("payment not found", nil)
	}

	payment, err := s.GetPaymentByReference(ctx, reference)
	if err == nil {
		s.invalidateUserPayments(ctx, payment.PayerID, payment.RecipientID)
	}
	return nil
}

// ListUserPayments serves GET /api/users/{user_id}/payments/. Payer,
// recipient, and job title are joined into the one query, and the whole
// listing is cached per user.
func (s *Store) ListUserPayments(ctx context.Context, userID string) ([]models.Payment, error) {
	ctx, span := tracer.Start(ctx, "Store.ListUserPayments")
	span.SetAttributes(telemetry.String("user.id", userID))
	defer span.End()

	key := cache.UserPaymentsKey(userID)
	var cached models.PaymentList
	switch err := s.cache.Get(ctx, key, &cached); err {
	case nil:
		s.stats.Hit()
		span.SetAttributes(telemetry.String("cache", "hit"))
		return cached.Payments, nil
	case cache.ErrNotFound:
		s.stats.Miss()
	default:
		s.stats.Error()
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	rows, err := s.db.DB().QueryContext(ctx, s.rebind(`
		SELECT p.id, p.payer_id, p.recipient_id, p.job_id, p.amount, p.currency,
		       p.reference, p.status, p.created_at, p.verified_at,
		       payer.id, payer.email, payer.first_name, payer.last_name, payer.created_at,
		       rec.id, rec.email, rec.first_name, rec.last_name, rec.created_at,
		       j.title
		FROM payments p
		JOIN users payer ON payer.id = p.payer_id
		JOIN users rec ON rec.id = p.recipient_id
		JOIN jobs j ON j.id = p.job_id
		WHERE p.payer_id = ? OR p.recipient_id = ?
		ORDER BY p.created_at DESC
	`), userID, userID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Internal("listing user payments", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var payment models.Payment
		var payer, rec models.User
		var verifiedAt sql.NullTime
		if err := rows.Scan(
			&payment.ID, &payment.PayerID, &payment.RecipientID, &payment.JobID,
			&payment.Amount, &payment.Currency, &payment.Reference, &payment.Status,
			&payment.CreatedAt, &verifiedAt,
			&payer.ID, &payer.Email, &payer.FirstName, &payer.LastName, &payer.CreatedAt,
			&rec.ID, &rec.Email, &rec.FirstName, &rec.LastName, &rec.CreatedAt,
			&payment.JobTitle,
		); err != nil {
			return nil, errors.Internal("scanning payment", err)
		}
		if verifiedAt.Valid {
			payment.VerifiedAt = &verifiedAt.Time
		}
		payment.Payer = &payer
		payment.Recipient = &rec
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("listing user payments", err)
	}

	if err := s.cache.Set(ctx, key, models.PaymentList{Payments: payments}, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}

	return payments, nil
}

// ListPendingPayments returns pending payments created before the cutoff,
// oldest first, for the reconciliation worker.
func (s *Store) ListPendingPayments(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.DB().QueryContext(ctx, s.rebind(`
		SELECT id, payer_id, recipient_id, job_id, amount, currency, reference, status, created_at, verified_at
		FROM payments
		WHERE status = ? AND created_at < ?
		ORDER BY created_at ASC
		LIMIT ?
	`), models.PaymentStatusPending, cutoff, limit)
	if err != nil {
		return nil, errors.Internal("listing pending payments", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var payment models.Payment
		var verifiedAt sql.NullTime
		if err := rows.Scan(
			&payment.ID, &payment.PayerID, &payment.RecipientID, &payment.JobID,
			&payment.Amount, &payment.Currency, &payment.Reference, &payment.Status,
			&payment.CreatedAt, &verifiedAt,
		); err != nil {
			return nil, errors.Internal("scanning pending payment", err)
		}
		if verifiedAt.Valid {
			payment.VerifiedAt = &verifiedAt.Time
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// invalidateUserPayments drops the cached listings of everyone whose view of
// the payment changed. A listing covers payments where the user is payer or
// recipient, so both sides must go.
func (s *Store) invalidateUserPayments(ctx context.Context, userIDs ...string) {
	for _, userID := range userIDs {
		if err := s.cache.Delete(ctx, cache.UserPaymentsKey(userID)); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}
