package gateway

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"rinha-backend-golang/internal/config"
	"rinha-backend-golang/internal/models"
)

// Server is the gateway's public HTTP surface: payment submission,
// summaries, and purge, fronted by its own Unix-domain-socket listener.
type Server struct {
	cfg       *config.Gateway
	publisher *Publisher
	db        *pgxpool.Pool
	log       *logrus.Entry
}

func NewServer(cfg *config.Gateway, db *pgxpool.Pool, log *logrus.Entry) *Server {
	return &Server{
		cfg:       cfg,
		publisher: NewPublisher(cfg.PublishSocket, config.PublisherMaxConns, log),
		db:        db,
		log:       log,
	}
}

// Run binds GATEWAY_LISTEN_SOCKET (permission 0o666, looser than the worker
// receiver's 0o600) and serves HTTP until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/payments", s.handlePayments)
	mux.HandleFunc("/payments-summary", s.handleSummary)
	mux.HandleFunc("/purge-payments", s.handlePurge)

	listener, err := net.Listen("unix", s.cfg.ListenSocket)
	if err != nil {
		return err
	}
	if err := chmodSocket(s.cfg.ListenSocket, 0o666); err != nil {
		s.log.WithError(err).Warn("gateway: could not set listen socket permissions")
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	s.log.WithField("socket", s.cfg.ListenSocket).Info("gateway: listening")
	if err := srv.Serve(bufferTunedListener{listener.(*net.UnixListener)}); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// bufferTunedListener applies the 16 KiB read/write socket buffer sizing
// spec.md §4.1 calls for on the ingress, extended here to the gateway's own
// listen socket per gateway/src/main.rs's max_buf_size(16*1024) tuning.
type bufferTunedListener struct {
	*net.UnixListener
}

func (ln bufferTunedListener) Accept() (net.Conn, error) {
	conn, err := ln.UnixListener.AcceptUnix()
	if err != nil {
		return nil, err
	}
	conn.SetReadBuffer(16 * 1024)
	conn.SetWriteBuffer(16 * 1024)
	return conn, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handlePayments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var submission models.PaymentSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	msg := models.PaymentMessage{
		Amount:        submission.Amount,
		CorrelationID: submission.CorrelationID,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}

	if err := s.publisher.Publish(payload); err != nil {
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
