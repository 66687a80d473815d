// cmd/repairsales backfills session links on orphan sales: each sale without
// a session is matched to the session covering its operator at sale time.
// Safe to re-run; already linked sales are untouched.
// Usage: go run ./cmd/repairsales
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"poscore/internal/config"
	"poscore/internal/infra"
	"poscore/internal/repository"
	"poscore/internal/service"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	sessions := service.NewSessionService(
		repository.NewSessionRepository(db),
		repository.NewSaleRepository(db),
		nil,
	)

	repaired, skipped, err := sessions.RepairAll(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("repair sweep failed")
	}
	log.Info().Int("repaired", repaired).Int("skipped", skipped).Msg("orphan sale sweep finished")
}
