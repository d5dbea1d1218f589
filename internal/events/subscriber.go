package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/models"
	"github.com/tsucess/paeshift-backend-sub001/internal/store"
)

const workerQueue = "paeshift-workers"

// Handler consumes marketplace events and applies their side effects, the
// main one being the denormalized rating refresh after a new review.
type Handler struct {
	logger *zap.Logger
	nc     *nats.Conn
	store  *store.Store
	subs   []*nats.Subscription
}

func NewHandler(logger *zap.Logger, nc *nats.Conn, st *store.Store) *Handler {
	return &Handler{
		logger: logger,
		nc:     nc,
		store:  st,
	}
}

func (h *Handler) RegisterSubscriptions(lc fx.Lifecycle) error {
	reviewSub, err := h.nc.QueueSubscribe(SubjectReviewCreated, workerQueue, h.handleReviewCreated)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", SubjectReviewCreated, err)
	}
	h.subs = append(h.subs, reviewSub)

	paymentSub, err := h.nc.QueueSubscribe(SubjectPaymentCompleted, workerQueue, h.handlePaymentCompleted)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", SubjectPaymentCompleted, err)
	}
	h.subs = append(h.subs, paymentSub)

	h.logger.Info("registered NATS subscriptions", zap.Int("count", len(h.subs)))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			for _, sub := range h.subs {
				if err := sub.Unsubscribe(); err != nil {
					return err
				}
			}
			return nil
		},
	})

	return nil
}

func (h *Handler) handleReviewCreated(msg *nats.Msg) {
	ctx, span := tracer.Start(context.Background(), "handleReviewCreated")
	defer span.End()

	var event ReviewCreatedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		h.logger.Error("failed to decode review event", zap.Error(err))
		return
	}

	if err := h.store.RecomputeUserRating(ctx, event.ReviewedID); err != nil {
		span.RecordError(err)
		h.logger.Error("failed to recompute rating",
			zap.String("user_id", event.ReviewedID),
			zap.Error(err))
		return
	}

	h.logger.Info("recomputed user rating after review",
		zap.String("user_id", event.ReviewedID),
		zap.Int64("review_id", event.ReviewID))
}

func (h *Handler) handlePaymentCompleted(msg *nats.Msg) {
	ctx, span := tracer.Start(context.Background(), "handlePaymentCompleted")
	defer span.End()

	var event PaymentCompletedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		h.logger.Error("failed to decode payment event", zap.Error(err))
		return
	}

	// A completed payment closes out the job.
	if err := h.store.UpdateJobStatus(ctx, event.JobID, models.JobStatusCompleted); err != nil {
		span.RecordError(err)
		h.logger.Error("failed to mark job completed",
			zap.String("job_id", event.JobID),
			zap.Error(err))
		return
	}

	h.logger.Info("job marked completed after payment",
		zap.String("job_id", event.JobID),
		zap.String("reference", event.Reference))
}
