// Package paystack is a minimal client for the two transaction endpoints the
// service uses: initialize and verify.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/errors"
	"github.com/tsucess/paeshift-backend-sub001/internal/telemetry"
)

var tracer = telemetry.GetTracer("paeshift/paystack")

type Client interface {
	InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error)
}

type Options struct {
	BaseURL    string
	SecretKey  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

type client struct {
	http    *http.Client
	baseURL string
	secret  string
	retries int
	delay   time.Duration
	logger  *zap.Logger
}

func New(opts Options, logger *zap.Logger) Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}

	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		secret:  opts.SecretKey,
		retries: opts.MaxRetries,
		delay:   opts.RetryDelay,
		logger:  logger,
	}
}

type InitializeRequest struct {
	Email     string            `json:"email"`
	Amount    int64             `json:"amount"` // subunits (kobo)
	Currency  string            `json:"currency,omitempty"`
	Reference string            `json:"reference,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type VerifyResponse struct {
	Status    string    `json:"status"` // success, failed, abandoned, pending
	Reference string    `json:"reference"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	PaidAt    time.Time `json:"paid_at"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	ctx, span := tracer.Start(ctx, "Paystack.InitializeTransaction")
	defer span.End()

	if req.Email == "" {
		return nil, errors.InvalidInput("email is required", nil)
	}
	if req.Amount <= 0 {
		return nil, errors.InvalidInput("amount must be positive", nil)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Internal("marshaling initialize request", err)
	}

	data, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var out InitializeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Internal("decoding initialize response", err)
	}
	span.SetAttributes(telemetry.String("paystack.reference", out.Reference))
	return &out, nil
}

func (c *client) VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error) {
	ctx, span := tracer.Start(ctx, "Paystack.VerifyTransaction")
	span.SetAttributes(telemetry.String("paystack.reference", reference))
	defer span.End()

	if reference == "" {
		return nil, errors.InvalidInput("reference is required", nil)
	}

	data, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var out VerifyResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Internal("decoding verify response", err)
	}
	span.SetAttributes(telemetry.String("paystack.status", out.Status))
	return &out, nil
}

// do executes the request, retrying transport failures and 5xx responses up
// to the configured retry count.
func (c *client) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying paystack request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, errors.Unavailable("paystack request cancelled", ctx.Err())
			case <-time.After(c.delay):
			}
		}

		var reader *bytes.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		} else {
			reader = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, errors.Internal("creating paystack request", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.secret)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		data, err := c.decode(resp)
		if err != nil {
			if errors.TypeOf(err) == errors.ErrTypeUnavailable {
				lastErr = err
				continue
			}
			return nil, err
		}
		return data, nil
	}

	return nil, errors.Unavailable("paystack unreachable", lastErr)
}

func (c *client) decode(resp *http.Response) (json.RawMessage, error) {
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, errors.Unavailable(fmt.Sprintf("paystack returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.RateLimit("paystack rate limit hit", nil)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, errors.Internal("decoding paystack response", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Status {
		return nil, errors.InvalidInput(fmt.Sprintf("paystack rejected request: %s", env.Message), nil)
	}

	return env.Data, nil
}
