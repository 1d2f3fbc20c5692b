package repo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nailstudio/salon-backend/internal/domain"
)

// Seed is the startup initialization step. It guarantees the settings
// singleton exists and fills never-initialized block and service
// collections with the stock content. It must complete before the HTTP
// server accepts requests.
func Seed(ctx context.Context, st Store, seed domain.Seed) error {
	if _, err := st.Settings().Ensure(ctx, seed.Settings); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	if s, ok := st.(interface {
		seed(context.Context, domain.Seed) (bool, bool, error)
	}); ok {
		blocks, services, err := s.seed(ctx, seed)
		if err != nil {
			return err
		}
		log.Info().Bool("blocks", blocks).Bool("services", services).Msg("store seeded")
		return nil
	}

	// Foreign Store implementations: seed through the public contract.
	blocks, err := st.Blocks().List(ctx)
	if err != nil {
		return fmt.Errorf("seed blocks: %w", err)
	}
	if len(blocks) == 0 {
		for _, b := range seed.Blocks {
			if _, err := st.Blocks().Create(ctx, b); err != nil {
				return fmt.Errorf("seed blocks: %w", err)
			}
		}
	}
	services, err := st.Services().List(ctx)
	if err != nil {
		return fmt.Errorf("seed services: %w", err)
	}
	if len(services) == 0 {
		for _, s := range seed.Services {
			if _, err := st.Services().Create(ctx, s); err != nil {
				return fmt.Errorf("seed services: %w", err)
			}
		}
	}
	return nil
}
