// Package workerpool fans payment messages out across a fixed number of
// workers, each health-routing a message to whichever processor is healthy
// and handing failures to a retry scheduler.
package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"rinha-backend-golang/internal/config"
	"rinha-backend-golang/internal/health"
	"rinha-backend-golang/internal/models"
	"rinha-backend-golang/internal/processor"
	"rinha-backend-golang/internal/store"
)

// ErrQueueFull is returned by Submit when the target worker's queue has no
// room.
var ErrQueueFull = errors.New("workerpool: queue full")

// Pool owns N worker goroutines, each with its own bounded inbound queue,
// plus the retry scheduler that feeds back into the same queues.
type Pool struct {
	queues  []chan models.PaymentMessage
	counter uint64

	monitor  *health.Monitor
	def      *processor.Client
	fallback *processor.Client
	store    *store.Store
	retry    *Scheduler
	log      *logrus.Entry
}

// New builds a pool of n workers, each with a queue sized
// BufferSize/n, and the retry scheduler that resubmits into the same
// queues.
func New(n int, monitor *health.Monitor, def, fallback *processor.Client, st *store.Store, log *logrus.Entry) *Pool {
	if n <= 0 {
		n = 1
	}
	p := &Pool{
		queues:   make([]chan models.PaymentMessage, n),
		monitor:  monitor,
		def:      def,
		fallback: fallback,
		store:    st,
		log:      log,
	}
	perWorker := config.BufferSize / n
	if perWorker <= 0 {
		perWorker = 1
	}
	for i := range p.queues {
		p.queues[i] = make(chan models.PaymentMessage, perWorker)
	}
	p.retry = newScheduler(p, log)
	return p
}

// Run starts every worker goroutine and the retry scheduler. It blocks
// until ctx is canceled.
func (p *Pool) Run(ctx context.Context) {
	go p.retry.run(ctx)
	for i := range p.queues {
		go p.runWorker(ctx, i)
	}
	<-ctx.Done()
}

// Submit routes a message to one queue chosen by round robin, returning
// ErrQueueFull when that queue has no capacity. The caller (receiver or
// retry scheduler) is expected to drop the message on this error.
func (p *Pool) Submit(msg models.PaymentMessage) error {
	idx := atomic.AddUint64(&p.counter, 1) % uint64(len(p.queues))
	select {
	case p.queues[idx] <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) runWorker(ctx context.Context, idx int) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-p.queues[idx]:
			p.handle(ctx, msg)
		}
	}
}

func (p *Pool) handle(ctx context.Context, msg models.PaymentMessage) {
	chosen, err := p.monitor.NextProcessor()
	if err != nil {
		p.retry.Retry(msg)
		return
	}

	client := p.def
	if chosen == models.Fallback {
		client = p.fallback
	}

	requestedAt := time.Now().UTC()
	if err := client.Process(ctx, msg, requestedAt); err != nil {
		p.retry.Retry(msg)
		return
	}

	p.store.Push(models.Payment{
		Amount:        msg.Amount,
		CorrelationID: msg.CorrelationID,
		RequestedAt:   requestedAt,
		Processor:     chosen,
	})
}
