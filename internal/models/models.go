// Package models holds the wire and persistence records shared by every
// process in the pipeline: the gateway, the worker pool, and the batching
// store.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Processor identifies which external payment service accepted a payment.
type Processor string

const (
	Default  Processor = "default"
	Fallback Processor = "fallback"
)

// PaymentMessage is the record that travels from the gateway's HTTP
// endpoint, over the publish socket, into a worker's inbound queue. It is
// mutated exactly once per retry, by incrementing RetryCount.
type PaymentMessage struct {
	Amount        decimal.Decimal `json:"amount"`
	CorrelationID uuid.UUID       `json:"correlationId"`
	RetryCount    int             `json:"retry_count,omitempty"`
}

// Payment is the persistence record built by a worker once a processor call
// succeeds, stamped with the instant sampled just before that call. It is
// never mutated after construction.
type Payment struct {
	Amount        decimal.Decimal
	CorrelationID uuid.UUID
	RequestedAt   time.Time
	Processor     Processor
}

// ProcessorHealth is the mutable, per-processor state kept by the health
// monitor and read by every worker.
type ProcessorHealth struct {
	Failing         bool
	MinResponseTime int
}

// IsFailing reports whether a processor should be avoided: either it
// self-reports failing, or its observed response time exceeds the
// threshold the health monitor enforces.
func (h ProcessorHealth) IsFailing() bool {
	return h.Failing || h.MinResponseTime > MaxHealthyResponseMillis
}

// MaxHealthyResponseMillis is the response-time ceiling past which a
// processor counts as failing even if it reports failing=false.
const MaxHealthyResponseMillis = 50

// RetryItem is a scheduler entry: a message paired with the instant it is
// next eligible for resubmission.
type RetryItem struct {
	Msg        PaymentMessage
	NextAttempt time.Time
}

// Summary aggregates one processor's contribution to /payments-summary.
type Summary struct {
	TotalRequests int64           `json:"totalRequests"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

// PaymentSummaryResponse is the JSON body returned by GET /payments-summary.
type PaymentSummaryResponse struct {
	Default  Summary `json:"default"`
	Fallback Summary `json:"fallback"`
}

// ServiceHealthResponse is decoded from a processor's
// GET /payments/service-health response.
type ServiceHealthResponse struct {
	Failing         bool `json:"failing"`
	MinResponseTime int  `json:"minResponseTime"`
}

// PaymentSubmission is the body accepted by POST /payments.
type PaymentSubmission struct {
	Amount        decimal.Decimal `json:"amount"`
	CorrelationID uuid.UUID       `json:"correlationId"`
}
