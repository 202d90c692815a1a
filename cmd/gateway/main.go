// Command gateway is the public HTTP surface: payment submission,
// summaries, and purge, publishing accepted payments to the worker pool
// over a Unix-domain-socket.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"rinha-backend-golang/internal/config"
	"rinha-backend-golang/internal/gateway"
	"rinha-backend-golang/internal/store"
)

func main() {
	log := logrus.New().WithField("component", "gateway")

	cfg, err := config.GatewayFromEnv()
	if err != nil {
		log.WithError(err).Fatal("gateway: config error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewPool(ctx, cfg.PostgresURL)
	if err != nil {
		log.WithError(err).Fatal("gateway: could not connect to postgres")
	}
	defer db.Close()

	os.Remove(cfg.ListenSocket)

	srv := gateway.NewServer(cfg, db, log)
	if err := srv.Run(ctx); err != nil {
		log.WithError(err).Fatal("gateway: exited with error")
	}
}
