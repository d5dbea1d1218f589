package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/errors"
	"github.com/tsucess/paeshift-backend-sub001/internal/telemetry"
)

var tracer = telemetry.GetTracer("paeshift/events")

const (
	SubjectJobCreated           = "jobs.created"
	SubjectApplicationSubmitted = "applications.submitted"
	SubjectPaymentCompleted     = "payments.completed"
	SubjectReviewCreated        = "reviews.created"
)

type JobCreatedEvent struct {
	JobID      string    `json:"job_id"`
	PostedByID string    `json:"posted_by_id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
}

type ApplicationSubmittedEvent struct {
	ApplicationID int64     `json:"application_id"`
	JobID         string    `json:"job_id"`
	ApplicantID   string    `json:"applicant_id"`
	AppliedAt     time.Time `json:"applied_at"`
}

type PaymentCompletedEvent struct {
	PaymentID   string    `json:"payment_id"`
	Reference   string    `json:"reference"`
	PayerID     string    `json:"payer_id"`
	RecipientID string    `json:"recipient_id"`
	JobID       string    `json:"job_id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	CompletedAt time.Time `json:"completed_at"`
}

type ReviewCreatedEvent struct {
	ReviewID   int64     `json:"review_id"`
	ReviewerID string    `json:"reviewer_id"`
	ReviewedID string    `json:"reviewed_id"`
	JobID      string    `json:"job_id"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"created_at"`
}

// Publisher fans marketplace events out to interested workers. Events are
// advisory: a publish failure is logged by callers, never surfaced to the
// requester.
type Publisher interface {
	Publish(ctx context.Context, subject string, event interface{}) error
	Close()
}

type natsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// NewPublisherWithConn wraps an existing connection, shared with the
// subscriber side. The connection's lifecycle belongs to the caller.
func NewPublisherWithConn(conn *nats.Conn, logger *zap.Logger) Publisher {
	return &natsPublisher{conn: conn, logger: logger}
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	_, span := tracer.Start(ctx, "Publish")
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return errors.Internal("marshaling event", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", subject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(subject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish event",
			zap.String("subject", subject),
			zap.Error(err))
		return errors.Internal("publishing event", err)
	}

	p.logger.Debug("published event", zap.String("subject", subject))
	return nil
}

func (p *natsPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// NopPublisher drops every event. Used when NATS is not configured and in
// tests.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	return nil
}

func (NopPublisher) Close() {}
