// Package worker runs the payment reconciliation loop. Pending payments can
// be left behind when a payer never returns from the checkout page, so the
// loop re-verifies them against Paystack on an interval.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/events"
	"github.com/tsucess/paeshift-backend-sub001/internal/models"
	"github.com/tsucess/paeshift-backend-sub001/internal/paystack"
	"github.com/tsucess/paeshift-backend-sub001/internal/store"
	"github.com/tsucess/paeshift-backend-sub001/internal/telemetry"
)

var tracer = telemetry.GetTracer("paeshift/worker")

type Reconciler struct {
	store     *store.Store
	paystack  paystack.Client
	publisher events.Publisher
	logger    *zap.Logger
	interval  time.Duration
	grace     time.Duration
	batchSize int
	mutex     sync.Mutex
	isActive  bool
}

type Options struct {
	Interval  time.Duration
	Grace     time.Duration
	BatchSize int
}

func NewReconciler(st *store.Store, ps paystack.Client, pub events.Publisher, logger *zap.Logger, opts Options) *Reconciler {
	interval := opts.Interval
	if interval == 0 {
		interval = 5 * time.Minute
	}
	grace := opts.Grace
	if grace == 0 {
		grace = time.Minute
	}
	batch := opts.BatchSize
	if batch == 0 {
		batch = 100
	}

	return &Reconciler{
		store:     st,
		paystack:  ps,
		publisher: pub,
		logger:    logger,
		interval:  interval,
		grace:     grace,
		batchSize: batch,
	}
}

func (r *Reconciler) Start(ctx context.Context) error {
	r.mutex.Lock()
	if r.isActive {
		r.mutex.Unlock()
		return nil
	}
	r.isActive = true
	r.mutex.Unlock()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.ReconcileOnce(ctx); err != nil {
		r.logger.Error("initial reconciliation failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.ReconcileOnce(ctx); err != nil {
				r.logger.Error("periodic reconciliation failed", zap.Error(err))
			}
		}
	}
}

func (r *Reconciler) Stop() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.isActive = false
}

// ReconcileOnce verifies one batch of stale pending payments. A verification
// failure on one payment never blocks the rest of the batch.
func (r *Reconciler) ReconcileOnce(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Reconciler.ReconcileOnce")
	defer span.End()

	cutoff := time.Now().UTC().Add(-r.grace)
	pending, err := r.store.ListPendingPayments(ctx, cutoff, r.batchSize)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(telemetry.Int("payments.pending", len(pending)))

	if len(pending) == 0 {
		return nil
	}
	r.logger.Info("reconciling pending payments", zap.Int("count", len(pending)))

	var completed, failed int
	for _, payment := range pending {
		switch r.reconcilePayment(ctx, payment) {
		case models.PaymentStatusSuccess:
			completed++
		case models.PaymentStatusFailed:
			failed++
		}
	}

	r.logger.Info("reconciliation pass finished",
		zap.Int("completed", completed),
		zap.Int("failed", failed),
		zap.Int("still_pending", len(pending)-completed-failed))
	return nil
}

func (r *Reconciler) reconcilePayment(ctx context.Context, payment models.Payment) models.PaymentStatus {
	ctx, span := tracer.Start(ctx, "Reconciler.reconcilePayment")
	span.SetAttributes(telemetry.String("payment.reference", payment.Reference))
	defer span.End()

	verification, err := r.paystack.VerifyTransaction(ctx, payment.Reference)
	if err != nil {
		span.RecordError(err)
		r.logger.Warn("verification failed, leaving payment pending",
			zap.String("reference", payment.Reference),
			zap.Error(err))
		return models.PaymentStatusPending
	}

	var status models.PaymentStatus
	switch verification.Status {
	case "success":
		status = models.PaymentStatusSuccess
	case "failed", "abandoned":
		status = models.PaymentStatusFailed
	default:
		return models.PaymentStatusPending
	}

	if err := r.store.MarkPaymentStatus(ctx, payment.Reference, status); err != nil {
		span.RecordError(err)
		r.logger.Error("failed to record verification outcome",
			zap.String("reference", payment.Reference),
			zap.Error(err))
		return models.PaymentStatusPending
	}

	if status == models.PaymentStatusSuccess {
		event := events.PaymentCompletedEvent{
			PaymentID:   payment.ID,
			Reference:   payment.Reference,
			PayerID:     payment.PayerID,
			RecipientID: payment.RecipientID,
			JobID:       payment.JobID,
			Amount:      payment.Amount,
			Currency:    payment.Currency,
			CompletedAt: time.Now().UTC(),
		}
		if err := r.publisher.Publish(ctx, events.SubjectPaymentCompleted, event); err != nil {
			r.logger.Warn("failed to publish payment completion",
				zap.String("reference", payment.Reference),
				zap.Error(err))
		}
	}

	return status
}
