package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nkoudou/brocante/internal/config"
	"github.com/nkoudou/brocante/internal/imagestore"
	"github.com/nkoudou/brocante/internal/observability"
	"github.com/nkoudou/brocante/internal/queue/cleanup"
	"github.com/nkoudou/brocante/internal/queue/redisclient"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	queue := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer queue.Close()

	pingCtx, cancel := config.WithTimeout(2 * time.Second)

	if err := queue.Ping(pingCtx); err != nil {
		cancel()
		log.Error("redis connect failed", "err", err)
		os.Exit(1)
	}

	cancel()

	prom := observability.NewProm(prometheus.NewRegistry())

	images := imagestore.New(imagestore.Config{
		CloudName: cfg.ImageCloudName,
		APIKey:    cfg.ImageAPIKey,
		APISecret: cfg.ImageAPISecret,
	}, prom)

	w := cleanup.NewWorker(cleanup.Config{
		PollTimeout: 5 * time.Second,
		CallTimeout: 15 * time.Second,
	}, queue, images, prom, log)

	log.Info("cleanup worker started")

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	log.Info("worker shutdown complete")
}
