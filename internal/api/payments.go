package api

import (
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/events"
	"github.com/tsucess/paeshift-backend-sub001/internal/models"
	"github.com/tsucess/paeshift-backend-sub001/internal/paystack"
)

type initializePaymentRequest struct {
	PayerID     string  `json:"payer_id"`
	RecipientID string  `json:"recipient_id"`
	JobID       string  `json:"job_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

type initializePaymentResponse struct {
	Payment          *models.Payment `json:"payment"`
	AuthorizationURL string          `json:"authorization_url"`
}

func (s *Server) handleInitializePayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleInitializePayment")
	defer span.End()

	var req initializePaymentRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	payer, _, err := s.store.GetUser(ctx, req.PayerID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	payment := &models.Payment{
		PayerID:     req.PayerID,
		RecipientID: req.RecipientID,
		JobID:       req.JobID,
		Amount:      req.Amount,
		Currency:    req.Currency,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		s.writeError(w, err)
		return
	}

	init, err := s.paystack.InitializeTransaction(ctx, paystack.InitializeRequest{
		Email:     payer.Email,
		Amount:    int64(math.Round(payment.Amount * 100)), // kobo
		Currency:  payment.Currency,
		Reference: payment.Reference,
		Metadata:  map[string]string{"job_id": payment.JobID},
	})
	if err != nil {
		// the pending row stays behind for the reconciler to retire
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, initializePaymentResponse{
		Payment:          payment,
		AuthorizationURL: init.AuthorizationURL,
	})
}

type verifyPaymentResponse struct {
	Payment *models.Payment `json:"payment"`
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleVerifyPayment")
	defer span.End()

	reference := r.PathValue("reference")
	payment, err := s.store.GetPaymentByReference(ctx, reference)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// already settled, nothing to verify
	if payment.Status != models.PaymentStatusPending {
		s.writeJSON(w, http.StatusOK, verifyPaymentResponse{Payment: payment})
		return
	}

	verification, err := s.paystack.VerifyTransaction(ctx, reference)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var status models.PaymentStatus
	switch verification.Status {
	case "success":
		status = models.PaymentStatusSuccess
	case "failed", "abandoned":
		status = models.PaymentStatusFailed
	default:
		// still pending at Paystack, report as-is
		s.writeJSON(w, http.StatusOK, verifyPaymentResponse{Payment: payment})
		return
	}

	if err := s.store.MarkPaymentStatus(ctx, reference, status); err != nil {
		s.writeError(w, err)
		return
	}

	if status == models.PaymentStatusSuccess {
		if err := s.publisher.Publish(ctx, events.SubjectPaymentCompleted, events.PaymentCompletedEvent{
			PaymentID:   payment.ID,
			Reference:   payment.Reference,
			PayerID:     payment.PayerID,
			RecipientID: payment.RecipientID,
			JobID:       payment.JobID,
			Amount:      payment.Amount,
			Currency:    payment.Currency,
			CompletedAt: time.Now().UTC(),
		}); err != nil {
			s.logger.Warn("failed to publish payment completion",
				zap.String("reference", reference), zap.Error(err))
		}
	}

	updated, err := s.store.GetPaymentByReference(ctx, reference)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, verifyPaymentResponse{Payment: updated})
}
