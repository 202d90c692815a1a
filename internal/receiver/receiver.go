// Package receiver accepts connections on the worker's Unix-domain-socket
// receive path and submits each newline-delimited payment frame into the
// worker pool.
package receiver

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"rinha-backend-golang/internal/config"
	"rinha-backend-golang/internal/models"
)

// Submitter is the subset of workerpool.Pool the receiver depends on.
type Submitter interface {
	Submit(msg models.PaymentMessage) error
}

// Receiver owns the listening socket and the semaphore bounding concurrent
// connections.
type Receiver struct {
	path string
	pool Submitter
	sem  *semaphore.Weighted
	log  *logrus.Entry
}

func New(path string, pool Submitter, log *logrus.Entry) *Receiver {
	return &Receiver{
		path: path,
		pool: pool,
		sem:  semaphore.NewWeighted(config.ReceiverMaxConns),
		log:  log,
	}
}

// Run binds the receive socket (permission 0o600) and accepts connections
// until ctx is canceled.
func (r *Receiver) Run(ctx context.Context) error {
	listener, err := net.Listen("unix", r.path)
	if err != nil {
		return err
	}
	if err := os.Chmod(r.path, 0o600); err != nil {
		r.log.WithError(err).Warn("receiver: could not set socket permissions")
	}

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	r.log.WithField("socket", r.path).Info("receiver: listening")
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				r.log.WithError(err).Warn("receiver: accept failed")
				continue
			}
		}
		if !r.sem.TryAcquire(1) {
			conn.Close()
			continue
		}
		go r.serve(conn)
	}
}

func (r *Receiver) serve(conn net.Conn) {
	defer r.sem.Release(1)
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, config.ReceiverReadBuf), config.ReceiverReadBuf)
	for scanner.Scan() {
		var msg models.PaymentMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if err := r.pool.Submit(msg); err != nil {
			r.log.WithField("correlation_id", msg.CorrelationID).Warn("receiver: worker queue full, dropping message")
		}
	}
}
