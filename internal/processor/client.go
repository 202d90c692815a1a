// Package processor is a thin HTTP client for the external payment
// processors. It only classifies responses; retry policy lives in the
// worker pool.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rinha-backend-golang/internal/models"
)

// ErrInvalidPayment is returned for a 422 response. The taxonomy treats it
// as terminal, but the worker loop does not currently special-case it — see
// the design notes on why this is preserved rather than fixed.
var ErrInvalidPayment = errors.New("processor: invalid payment")

// ErrUnavailable is returned for 408, 429, 5xx responses, and for any
// transport-level failure.
var ErrUnavailable = errors.New("processor: unavailable")

type paymentRequest struct {
	Amount        interface{} `json:"amount"`
	CorrelationID string      `json:"correlationId"`
	RequestedAt   string      `json:"requestedAt"`
}

// Client posts payments to a single processor URL.
type Client struct {
	url    string
	client *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url: url,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        200,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
}

// Process submits a payment with the caller-supplied requestedAt, and
// classifies the response per the documented status table.
func (c *Client) Process(ctx context.Context, msg models.PaymentMessage, requestedAt time.Time) error {
	body := paymentRequest{
		Amount:        msg.Amount,
		CorrelationID: msg.CorrelationID.String(),
		RequestedAt:   requestedAt.UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("processor: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/payments", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("processor: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return ErrUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return ErrInvalidPayment
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		return ErrUnavailable
	default:
		return nil
	}
}
