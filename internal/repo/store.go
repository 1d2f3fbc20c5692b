package repo

import (
	"context"
	"fmt"

	"github.com/nailstudio/salon-backend/internal/domain"
)

type store struct {
	settings    SettingsRepo
	blocks      backend[domain.Block, domain.BlockPatch]
	services    backend[domain.Service, domain.ServicePatch]
	reviews     backend[domain.Review, domain.ReviewPatch]
	requests    backend[domain.Request, domain.NoPatch[domain.Request]]
	subscribers backend[domain.Subscriber, domain.NoPatch[domain.Subscriber]]
	images      backend[domain.Image, domain.NoPatch[domain.Image]]
	closer      func() error
}

func (s *store) Settings() SettingsRepo  { return s.settings }
func (s *store) Blocks() Blocks           { return s.blocks }
func (s *store) Services() Services       { return s.services }
func (s *store) Reviews() Reviews         { return s.reviews }
func (s *store) Requests() Requests       { return s.requests }
func (s *store) Subscribers() Subscribers { return s.subscribers }
func (s *store) Images() Images           { return s.images }
func (s *store) Close() error             { return s.closer() }

func (s *store) SubscriberByChatID(ctx context.Context, chatID string) (domain.Subscriber, error) {
	return s.subscribers.findUnique(ctx, chatID)
}

func (s *store) seed(ctx context.Context, seed domain.Seed) (blocks, services bool, err error) {
	if blocks, err = s.blocks.seedIfAbsent(ctx, seed.Blocks); err != nil {
		return false, false, fmt.Errorf("seed blocks: %w", err)
	}
	if services, err = s.services.seedIfAbsent(ctx, seed.Services); err != nil {
		return blocks, false, fmt.Errorf("seed services: %w", err)
	}
	return blocks, services, nil
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQL    = "sql"
)

// Options selects and configures a backing strategy.
type Options struct {
	Driver  string
	DataDir string
	Dialect string
	DSN     string
	Tracing bool
}

// Open builds the Store selected by opts.Driver.
func Open(opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewFile(opts.DataDir)
	case DriverSQL:
		db, err := OpenDB(opts.Dialect, opts.DSN, opts.Tracing)
		if err != nil {
			return nil, err
		}
		return NewSQL(db)
	default:
		return nil, fmt.Errorf("repo: unknown storage driver %q", opts.Driver)
	}
}
