package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"poscore/internal/config"
	"poscore/internal/infra"
	"poscore/internal/repository"
	"poscore/internal/service"
	"poscore/internal/worker"
)

func main() {
	// Structured logger: pretty in dev, JSON elsewhere
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Composition root: the worker pool gets the same service graph the
	// checkout terminals consume, so report jobs see identical numbers.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionRepo := repository.NewSessionRepository(db)
	saleRepo := repository.NewSaleRepository(db)

	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)
	reports := service.NewReportService(sessionRepo, saleRepo)

	handlers := worker.Handlers{
		Report: worker.NewReportWorker(reports, dispatcher, cfg.PDFStoragePath, cfg.ReportEmail),
		Email:  worker.NewEmailWorker(mailer),
	}
	worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)

	log.Info().Msg("poscore worker daemon started")

	// Graceful shutdown on SIGINT / SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()
	time.Sleep(time.Second)
	log.Info().Msg("daemon exited")
}
