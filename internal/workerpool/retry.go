package workerpool

import (
	"container/heap"
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"rinha-backend-golang/internal/config"
	"rinha-backend-golang/internal/models"
)

// retryHeap orders models.RetryItem by the smallest NextAttempt first.
// Go's container/heap is a min-heap by construction, so unlike a
// Rust BinaryHeap (max-heap, requiring an inverted Ord) this needs no
// comparison trick.
type retryHeap []models.RetryItem

func (h retryHeap) Len() int            { return len(h) }
func (h retryHeap) Less(i, j int) bool  { return h[i].NextAttempt.Before(h[j].NextAttempt) }
func (h retryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *retryHeap) Push(x interface{}) { *h = append(*h, x.(models.RetryItem)) }
func (h *retryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler owns the min-heap of delayed retries and the channel new
// retries arrive on.
type Scheduler struct {
	pool   *Pool
	inbox  chan models.PaymentMessage
	log    *logrus.Entry
}

func newScheduler(pool *Pool, log *logrus.Entry) *Scheduler {
	return &Scheduler{
		pool:  pool,
		inbox: make(chan models.PaymentMessage, config.BufferSize),
		log:   log,
	}
}

// Retry is called by a worker on any processor failure. It drops the
// message once its retry count has reached MaxRetries, otherwise
// increments the count and enqueues it onto the scheduler's inbound
// channel, dropping on overflow. The backoff delay is computed by run when
// the message arrives there.
func (s *Scheduler) Retry(msg models.PaymentMessage) {
	if msg.RetryCount >= config.MaxRetries {
		s.log.WithField("correlation_id", msg.CorrelationID).Warn("workerpool: dropping message after exhausting retries")
		return
	}
	msg.RetryCount++

	select {
	case s.inbox <- msg:
	default:
		s.log.WithField("correlation_id", msg.CorrelationID).Warn("workerpool: retry inbox full, dropping message")
	}
}

func backoff(retryCount int) time.Duration {
	shift := retryCount
	if shift > 10 {
		shift = 10
	}
	delayMs := config.BaseBackoffMs << uint(shift)
	if delayMs > config.MaxBackoffMs {
		delayMs = config.MaxBackoffMs
	}

	jitterRange := float64(delayMs) * config.JitterFraction
	pseudo := uint64(retryCount)*1103515245 + 12345
	mod := uint64(2 * jitterRange)
	if mod == 0 {
		mod = 1
	}
	jitter := float64(pseudo % mod)

	final := float64(delayMs) - jitterRange + jitter
	if final < 0 {
		final = 0
	}
	return time.Duration(final) * time.Millisecond
}

func (s *Scheduler) run(ctx context.Context) {
	h := &retryHeap{}
	heap.Init(h)

	var timer *time.Timer
	for {
		var timerC <-chan time.Time
		if h.Len() > 0 {
			delay := time.Until((*h)[0].NextAttempt)
			if delay < 0 {
				delay = 0
			}
			timer = time.NewTimer(delay)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case msg := <-s.inbox:
			if timer != nil {
				timer.Stop()
			}
			heap.Push(h, models.RetryItem{
				Msg:         msg,
				NextAttempt: time.Now().Add(backoff(msg.RetryCount)),
			})

		case <-timerC:
			now := time.Now()
			for h.Len() > 0 && !(*h)[0].NextAttempt.After(now) {
				item := heap.Pop(h).(models.RetryItem)
				if err := s.pool.Submit(item.Msg); err != nil {
					s.log.WithField("correlation_id", item.Msg.CorrelationID).Warn("workerpool: resubmission dropped, queue full")
				}
			}
		}
	}
}
