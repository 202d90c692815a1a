// Package health polls the two external payment processors on a fixed
// interval and exposes the tri-state processor-selection policy every
// worker consults before dispatching a payment.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"rinha-backend-golang/internal/models"
)

// ErrUnavailable is returned by NextProcessor when both processors are
// failing.
var ErrUnavailable = errors.New("health: both processors unavailable")

// Monitor ticks every interval, probing both processor URLs, and serves
// NextProcessor reads from any number of worker goroutines.
type Monitor struct {
	defaultURL  string
	fallbackURL string
	client      *http.Client
	log         *logrus.Entry

	mu    sync.RWMutex
	state map[models.Processor]models.ProcessorHealth
}

// NewMonitor wires distinct URLs for the default and fallback processors.
// Passing the same URL for both would silently stop the fallback from ever
// being probed.
func NewMonitor(defaultURL, fallbackURL string, log *logrus.Entry) *Monitor {
	m := &Monitor{
		defaultURL:  defaultURL,
		fallbackURL: fallbackURL,
		client:      &http.Client{Timeout: 3 * time.Second},
		log:         log,
		state: map[models.Processor]models.ProcessorHealth{
			models.Default:  {},
			models.Fallback: {},
		},
	}
	return m
}

// Run blocks, probing both processors every HealthCheckInterval until ctx
// is canceled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx, models.Default, m.defaultURL)
			m.probe(ctx, models.Fallback, m.fallbackURL)
		}
	}
}

func (m *Monitor) probe(ctx context.Context, name models.Processor, url string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/payments/service-health", nil)
	if err != nil {
		m.log.WithError(err).WithField("processor", name).Warn("health: building probe request failed")
		return
	}
	resp, err := m.client.Do(req)
	if err != nil {
		m.log.WithError(err).WithField("processor", name).Warn("health: probe failed, keeping last-known state")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.log.WithField("processor", name).WithField("status", resp.StatusCode).Warn("health: probe returned non-200, keeping last-known state")
		return
	}

	var body models.ServiceHealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		m.log.WithError(err).WithField("processor", name).Warn("health: decoding probe response failed")
		return
	}

	m.mu.Lock()
	m.state[name] = models.ProcessorHealth{Failing: body.Failing, MinResponseTime: body.MinResponseTime}
	m.mu.Unlock()
}

// NextProcessor implements the tri-state selection policy: Default unless
// it is failing, else Fallback unless it too is failing, else
// ErrUnavailable. It never collapses to a Default-only check.
func (m *Monitor) NextProcessor() (models.Processor, error) {
	m.mu.RLock()
	defaultHealth := m.state[models.Default]
	fallbackHealth := m.state[models.Fallback]
	m.mu.RUnlock()

	if !defaultHealth.IsFailing() {
		return models.Default, nil
	}
	if !fallbackHealth.IsFailing() {
		return models.Fallback, nil
	}
	return "", ErrUnavailable
}
