// Command loadbalancer is the round-robin ingress proxy fronting the
// gateway processes.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"rinha-backend-golang/internal/config"
	"rinha-backend-golang/internal/ingress"
)

func main() {
	log := logrus.New().WithField("component", "loadbalancer")

	cfg, err := config.IngressFromEnv()
	if err != nil {
		log.WithError(err).Fatal("loadbalancer: config error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	proxy := ingress.New(cfg.Backends, log)
	if err := proxy.Run(ctx, cfg.ListenPort); err != nil {
		log.WithError(err).Fatal("loadbalancer: exited with error")
	}
}
