package repo

import (
	"context"
	"sync"

	"github.com/nailstudio/salon-backend/internal/domain"
)

// backend is a Collection plus the strategy hooks Store and Seed rely on.
type backend[T any, P Patch[T]] interface {
	Collection[T, P]
	findUnique(ctx context.Context, value string) (T, error)
	// seedIfAbsent fills a collection that was never initialized and
	// reports whether it did.
	seedIfAbsent(ctx context.Context, items []T) (bool, error)
}

// memCollection keeps records in a map plus their insertion order. The
// mutex only keeps map access memory-safe; it does not make
// read-modify-write sequences across calls atomic.
type memCollection[T any, P Patch[T], R any] struct {
	s      schema[T, R]
	mu     sync.RWMutex
	rows   map[string]R
	order  []string
	seeded bool
}

func newMemCollection[T any, P Patch[T], R any](s schema[T, R]) *memCollection[T, P, R] {
	return &memCollection[T, P, R]{s: s, rows: make(map[string]R)}
}

func (c *memCollection[T, P, R]) List(_ context.Context) ([]T, error) {
	c.mu.RLock()
	rows := make([]R, 0, len(c.order))
	for _, id := range c.order {
		rows = append(rows, c.rows[id])
	}
	c.mu.RUnlock()
	return c.s.decodeAll(rows)
}

func (c *memCollection[T, P, R]) Get(_ context.Context, id string) (T, error) {
	c.mu.RLock()
	r, ok := c.rows[id]
	c.mu.RUnlock()
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return c.s.decode(r)
}

func (c *memCollection[T, P, R]) Create(_ context.Context, v T) (T, error) {
	v, r, err := c.s.prepare(v)
	if err != nil {
		var zero T
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.uniqueValue != nil {
		want := c.s.uniqueValue(v)
		for _, id := range c.order {
			ex, err := c.s.decode(c.rows[id])
			if err == nil && c.s.uniqueValue(ex) == want {
				var zero T
				return zero, ErrConflict
			}
		}
	}
	id := c.s.key(r)
	c.rows[id] = r
	c.order = append(c.order, id)
	c.seeded = true
	return v, nil
}

func (c *memCollection[T, P, R]) Update(_ context.Context, id string, p P) (T, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rows[id]
	if !ok {
		return zero, ErrNotFound
	}
	v, err := c.s.decode(r)
	if err != nil {
		return zero, err
	}
	p.Apply(&v)
	nr, err := c.s.encode(v)
	if err != nil {
		return zero, err
	}
	c.rows[id] = nr
	return v, nil
}

func (c *memCollection[T, P, R]) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rows[id]; !ok {
		return ErrNotFound
	}
	delete(c.rows, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *memCollection[T, P, R]) findUnique(ctx context.Context, value string) (T, error) {
	var zero T
	if c.s.uniqueValue == nil {
		return zero, ErrNotFound
	}
	all, err := c.List(ctx)
	if err != nil {
		return zero, err
	}
	for _, v := range all {
		if c.s.uniqueValue(v) == value {
			return v, nil
		}
	}
	return zero, ErrNotFound
}

func (c *memCollection[T, P, R]) seedIfAbsent(ctx context.Context, items []T) (bool, error) {
	c.mu.RLock()
	seeded := c.seeded
	c.mu.RUnlock()
	if seeded {
		return false, nil
	}
	for _, it := range items {
		if _, err := c.Create(ctx, it); err != nil {
			return false, err
		}
	}
	c.mu.Lock()
	c.seeded = true
	c.mu.Unlock()
	return true, nil
}

// memSettings holds the settings singleton in memory.
type memSettings struct {
	mu sync.RWMutex
	v  *domain.Settings
}

func (m *memSettings) load(_ context.Context) (domain.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.v == nil {
		return domain.Settings{}, ErrNotFound
	}
	return *m.v, nil
}

func (m *memSettings) save(_ context.Context, s domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.v = &s
	return nil
}

// NewMemory returns a volatile Store. Run Seed before serving requests.
func NewMemory() Store {
	return &store{
		settings:    newSettingsRepo(&memSettings{}),
		blocks:      newMemCollection[domain.Block, domain.BlockPatch](blockSchema),
		services:    newMemCollection[domain.Service, domain.ServicePatch](serviceSchema),
		reviews:     newMemCollection[domain.Review, domain.ReviewPatch](reviewSchema),
		requests:    newMemCollection[domain.Request, domain.NoPatch[domain.Request]](requestSchema),
		subscribers: newMemCollection[domain.Subscriber, domain.NoPatch[domain.Subscriber]](subscriberSchema),
		images:      newMemCollection[domain.Image, domain.NoPatch[domain.Image]](imageSchema),
		closer:      func() error { return nil },
	}
}
