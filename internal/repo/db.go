// Package repo implements the persistence layer for the salon site. This
// file contains database bootstrapping helpers for the sql strategy (SQLite
// through the pure Go driver, or PostgreSQL), schema migrations and the
// GORM-backed collections.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/nailstudio/salon-backend/internal/domain"
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// OpenPostgres opens a PostgreSQL database from a DSN.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// OpenDB opens the database for dialect ("sqlite" or "postgres"). When
// tracing is set, the GORM OpenTelemetry plugin is installed.
func OpenDB(dialect, dsn string, tracingOn bool) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch dialect {
	case "sqlite":
		db, err = OpenSQLite(dsn)
	case "postgres":
		db, err = OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("repo: unknown dialect %q", dialect)
	}
	if err != nil {
		return nil, err
	}
	if tracingOn {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, fmt.Errorf("repo: install tracing plugin: %w", err)
		}
	}
	return db, nil
}

// AutoMigrate creates or updates every table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Settings{},
		&domain.BlockRecord{},
		&domain.Service{},
		&domain.Review{},
		&domain.Request{},
		&domain.Subscriber{},
		&domain.Image{},
	)
}

// sqlCollection maps one collection onto a table of R rows.
type sqlCollection[T any, P Patch[T], R any] struct {
	s  schema[T, R]
	db *gorm.DB
}

func newSQLCollection[T any, P Patch[T], R any](db *gorm.DB, s schema[T, R]) *sqlCollection[T, P, R] {
	return &sqlCollection[T, P, R]{s: s, db: db}
}

func (c *sqlCollection[T, P, R]) List(ctx context.Context) ([]T, error) {
	var rows []R
	if err := c.db.WithContext(ctx).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", c.s.name, err)
	}
	return c.s.decodeAll(rows)
}

func (c *sqlCollection[T, P, R]) Get(ctx context.Context, id string) (T, error) {
	var (
		zero T
		r    R
	)
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return zero, err
	}
	return c.s.decode(r)
}

func (c *sqlCollection[T, P, R]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	if c.s.uniqueValue != nil {
		var n int64
		err := c.db.WithContext(ctx).Model(new(R)).
			Where(c.s.uniqueColumn+" = ?", c.s.uniqueValue(v)).Count(&n).Error
		if err != nil {
			return zero, fmt.Errorf("create %s: %w", c.s.name, err)
		}
		if n > 0 {
			return zero, ErrConflict
		}
	}
	v, r, err := c.s.prepare(v)
	if err != nil {
		return zero, err
	}
	if err := c.db.WithContext(ctx).Create(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return zero, ErrConflict
		}
		return zero, fmt.Errorf("create %s: %w", c.s.name, err)
	}
	return v, nil
}

func (c *sqlCollection[T, P, R]) Update(ctx context.Context, id string, p P) (T, error) {
	var out T
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r R
		if err := tx.Where("id = ?", id).First(&r).Error; err != nil {
			return err
		}
		v, err := c.s.decode(r)
		if err != nil {
			return err
		}
		p.Apply(&v)
		nr, err := c.s.encode(v)
		if err != nil {
			return err
		}
		if err := tx.Save(&nr).Error; err != nil {
			return fmt.Errorf("update %s: %w", c.s.name, err)
		}
		out = v
		return nil
	})
	return out, err
}

func (c *sqlCollection[T, P, R]) Delete(ctx context.Context, id string) error {
	res := c.db.WithContext(ctx).Where("id = ?", id).Delete(new(R))
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", c.s.name, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *sqlCollection[T, P, R]) findUnique(ctx context.Context, value string) (T, error) {
	var (
		zero T
		r    R
	)
	if c.s.uniqueValue == nil {
		return zero, ErrNotFound
	}
	if err := c.db.WithContext(ctx).Where(c.s.uniqueColumn+" = ?", value).First(&r).Error; err != nil {
		return zero, err
	}
	return c.s.decode(r)
}

// seedIfAbsent fills an empty table.
func (c *sqlCollection[T, P, R]) seedIfAbsent(ctx context.Context, items []T) (bool, error) {
	var n int64
	if err := c.db.WithContext(ctx).Model(new(R)).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	for _, it := range items {
		if _, err := c.Create(ctx, it); err != nil {
			return false, err
		}
	}
	return true, nil
}

type sqlSettings struct {
	db *gorm.DB
}

func (s *sqlSettings) load(ctx context.Context) (domain.Settings, error) {
	var out domain.Settings
	err := s.db.WithContext(ctx).Order("id").First(&out).Error
	return out, err
}

func (s *sqlSettings) save(ctx context.Context, v domain.Settings) error {
	return s.db.WithContext(ctx).Save(&v).Error
}

// NewSQL returns a Store over db after migrating the schema. Close closes
// the underlying connection pool.
func NewSQL(db *gorm.DB) (Store, error) {
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &store{
		settings:    newSettingsRepo(&sqlSettings{db: db}),
		blocks:      newSQLCollection[domain.Block, domain.BlockPatch](db, blockSchema),
		services:    newSQLCollection[domain.Service, domain.ServicePatch](db, serviceSchema),
		reviews:     newSQLCollection[domain.Review, domain.ReviewPatch](db, reviewSchema),
		requests:    newSQLCollection[domain.Request, domain.NoPatch[domain.Request]](db, requestSchema),
		subscribers: newSQLCollection[domain.Subscriber, domain.NoPatch[domain.Subscriber]](db, subscriberSchema),
		images:      newSQLCollection[domain.Image, domain.NoPatch[domain.Image]](db, imageSchema),
		closer: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}, nil
}
