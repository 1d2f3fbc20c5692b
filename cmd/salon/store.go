package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nailstudio/salon-backend/internal/auth"
	"github.com/nailstudio/salon-backend/internal/config"
	"github.com/nailstudio/salon-backend/internal/domain"
	"github.com/nailstudio/salon-backend/internal/repo"
)

// openStore opens the configured store and runs the startup seed so the
// settings singleton exists before anything reads it.
func openStore(ctx context.Context, cfg config.Config) (repo.Store, error) {
	st, err := repo.Open(repo.Options{
		Driver:  cfg.Storage.Driver,
		DataDir: cfg.Storage.DataDir,
		Dialect: cfg.Storage.Dialect,
		DSN:     cfg.Storage.DSN,
		Tracing: cfg.OTEL.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	hash, err := auth.HashPassword(cfg.Auth.DefaultPassword)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("hash default password: %w", err)
	}
	if err := repo.Seed(ctx, st, domain.DefaultSeed(hash)); err != nil {
		_ = st.Close()
		return nil, err
	}
	log.Info().Str("driver", cfg.Storage.Driver).Msg("store ready")
	return st, nil
}
