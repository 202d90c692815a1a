// Package store runs the single background task that drains successful
// payments and bulk-inserts them into Postgres, either as one prepared
// statement or as a binary COPY batch.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"rinha-backend-golang/internal/config"
	"rinha-backend-golang/internal/models"
)

// Store owns the bounded channel workers push confirmed payments into.
type Store struct {
	pool *pgxpool.Pool
	ch   chan models.Payment
	log  *logrus.Entry
}

func New(pool *pgxpool.Pool, log *logrus.Entry) *Store {
	return &Store{
		pool: pool,
		ch:   make(chan models.Payment, config.StoreChannelSize),
		log:  log,
	}
}

// Push is called by a worker on processor success. The send is
// non-blocking: overflow drops an already-confirmed payment, a known
// durability gap preserved rather than fixed (see the design notes).
func (s *Store) Push(p models.Payment) {
	select {
	case s.ch <- p:
	default:
		s.log.WithField("correlation_id", p.CorrelationID).Error("store: channel full, dropping confirmed payment")
	}
}

// Run drains the channel opportunistically: single rows go through a
// prepared insert, batches of more than one row go through a binary COPY,
// and the loop paces itself with a 1ms sleep after every pass.
func (s *Store) Run(ctx context.Context) {
	buf := make([]models.Payment, 0, 256)
	for {
		select {
		case <-ctx.Done():
			buf = buf[:0]
			s.drain(&buf)
			switch len(buf) {
			case 0:
			case 1:
				s.insertOne(context.Background(), buf[0])
			default:
				s.copyBatch(context.Background(), buf)
			}
			return
		default:
		}

		buf = buf[:0]
		s.drain(&buf)

		switch len(buf) {
		case 0:
		case 1:
			s.insertOne(ctx, buf[0])
		default:
			s.copyBatch(ctx, buf)
		}

		time.Sleep(config.StoreBatchPacing)
	}
}

// drain performs a non-blocking receive loop, collecting everything
// currently queued without waiting for more.
func (s *Store) drain(buf *[]models.Payment) {
	for {
		select {
		case p := <-s.ch:
			*buf = append(*buf, p)
		default:
			return
		}
	}
}

func (s *Store) insertOne(ctx context.Context, p models.Payment) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO payments (amount, requested_at, service_used, correlation_id) VALUES ($1, $2, $3, $4)`,
		p.Amount, p.RequestedAt, p.Processor, p.CorrelationID,
	)
	if err != nil {
		s.log.WithError(err).Error("store: single insert failed, batch lost")
	}
}

func (s *Store) copyBatch(ctx context.Context, batch []models.Payment) {
	rows := make([][]interface{}, len(batch))
	for i, p := range batch {
		rows[i] = []interface{}{p.Amount, p.RequestedAt, p.Processor, p.CorrelationID}
	}
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"payments"},
		[]string{"amount", "requested_at", "service_used", "correlation_id"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		s.log.WithError(err).WithField("rows", len(batch)).Error("store: copy batch failed, batch lost")
	}
}
