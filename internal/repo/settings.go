package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nailstudio/salon-backend/internal/auth"
	"github.com/nailstudio/salon-backend/internal/domain"
)

// singleton is the strategy-specific storage of the settings row.
type singleton interface {
	// load returns ErrNotFound when no row exists.
	load(ctx context.Context) (domain.Settings, error)
	save(ctx context.Context, s domain.Settings) error
}

type settingsRepo struct {
	b singleton
}

func newSettingsRepo(b singleton) *settingsRepo {
	return &settingsRepo{b: b}
}

func (r *settingsRepo) Get(ctx context.Context) (domain.Settings, error) {
	return r.b.load(ctx)
}

func (r *settingsRepo) Update(ctx context.Context, p domain.SettingsPatch) (domain.Settings, error) {
	cur, err := r.b.load(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if p.AdminPassword != nil {
		pw := *p.AdminPassword
		switch {
		case pw == "":
			p.AdminPassword = nil
		case !auth.IsHash(pw):
			h, err := auth.HashPassword(pw)
			if err != nil {
				return domain.Settings{}, fmt.Errorf("hash admin password: %w", err)
			}
			p.AdminPassword = &h
		}
	}
	id := cur.ID
	p.Apply(&cur)
	cur.ID = id
	if err := r.b.save(ctx, cur); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return cur, nil
}

func (r *settingsRepo) Ensure(ctx context.Context, defaults domain.Settings) (domain.Settings, error) {
	cur, err := r.b.load(ctx)
	if err == nil {
		return cur, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.Settings{}, err
	}
	defaults.ID = uuid.NewString()
	if !auth.IsHash(defaults.AdminPassword) {
		h, err := auth.HashPassword(defaults.AdminPassword)
		if err != nil {
			return domain.Settings{}, fmt.Errorf("hash admin password: %w", err)
		}
		defaults.AdminPassword = h
	}
	if err := r.b.save(ctx, defaults); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return defaults, nil
}
