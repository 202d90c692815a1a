// Command worker runs the receiver, the worker pool (health monitor,
// processor clients, retry scheduler), and the batching store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"rinha-backend-golang/internal/config"
	"rinha-backend-golang/internal/health"
	"rinha-backend-golang/internal/processor"
	"rinha-backend-golang/internal/receiver"
	"rinha-backend-golang/internal/store"
	"rinha-backend-golang/internal/workerpool"
)

func main() {
	log := logrus.New().WithField("component", "worker")

	cfg, err := config.WorkerFromEnv()
	if err != nil {
		log.WithError(err).Fatal("worker: config error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewPool(ctx, cfg.PostgresURL)
	if err != nil {
		log.WithError(err).Fatal("worker: could not connect to postgres")
	}
	defer db.Close()

	monitor := health.NewMonitor(cfg.DefaultProcessorURL, cfg.FallbackProcessorURL, log)
	go monitor.Run(ctx, config.HealthCheckInterval)

	st := store.New(db, log)
	go st.Run(ctx)

	pool := workerpool.New(
		cfg.NumWorkers,
		monitor,
		processor.NewClient(cfg.DefaultProcessorURL),
		processor.NewClient(cfg.FallbackProcessorURL),
		st,
		log,
	)
	go pool.Run(ctx)

	os.Remove(cfg.ListenPath)

	r := receiver.New(cfg.ListenPath, pool, log)
	if err := r.Run(ctx); err != nil {
		log.WithError(err).Fatal("worker: exited with error")
	}
}
