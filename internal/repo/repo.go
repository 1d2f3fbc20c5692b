// Package repo implements the persistence layer for the salon site.
//
// Every entity collection is exposed through the same small CRUD contract,
// Collection, and the whole set through Store. Three interchangeable
// strategies back the contract:
//
//   - memory: volatile maps, lost on restart.
//   - file:   one pretty-printed JSON file per collection under a data
//     directory; every mutation is a full read-modify-write of that file.
//   - sql:    GORM over SQLite (pure Go driver) or PostgreSQL.
//
// Error semantics:
//   - Get/Update/Delete on a missing id return ErrNotFound.
//   - Creating a subscriber whose chat id already exists returns ErrConflict.
//   - Other storage errors are wrapped and propagated.
//
// The strategies do not coordinate concurrent writers. Two concurrent
// mutations of the same collection may race and the last write wins.
package repo

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nailstudio/salon-backend/internal/domain"
)

var (
	// ErrNotFound is returned when a record with the given id does not exist.
	ErrNotFound = gorm.ErrRecordNotFound
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("repo: conflict")
)

// Patch is a partial update of T.
type Patch[T any] interface {
	Apply(*T)
}

// Collection is the CRUD contract shared by every entity collection.
type Collection[T any, P Patch[T]] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	// Create assigns a fresh id (and creation time where the entity has one)
	// regardless of what the caller set.
	Create(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, id string, p P) (T, error)
	Delete(ctx context.Context, id string) error
}

// SettingsRepo manages the settings singleton.
type SettingsRepo interface {
	// Get returns the singleton, or ErrNotFound before Ensure has run.
	Get(ctx context.Context) (domain.Settings, error)
	// Update merges the patch. A plaintext AdminPassword is hashed first;
	// an absent or empty one leaves the stored hash untouched.
	Update(ctx context.Context, p domain.SettingsPatch) (domain.Settings, error)
	// Ensure creates the singleton from defaults when none exists and
	// returns the stored one.
	Ensure(ctx context.Context, defaults domain.Settings) (domain.Settings, error)
}

type (
	// Blocks is the page block collection.
	Blocks = Collection[domain.Block, domain.BlockPatch]
	// Services is the service collection.
	Services = Collection[domain.Service, domain.ServicePatch]
	// Reviews is the review collection.
	Reviews = Collection[domain.Review, domain.ReviewPatch]
	// Requests is the booking request collection.
	Requests = Collection[domain.Request, domain.NoPatch[domain.Request]]
	// Subscribers is the notification subscriber collection.
	Subscribers = Collection[domain.Subscriber, domain.NoPatch[domain.Subscriber]]
	// Images is the uploaded image metadata collection.
	Images = Collection[domain.Image, domain.NoPatch[domain.Image]]
)

// Store groups every collection of one backing strategy.
type Store interface {
	Settings() SettingsRepo
	Blocks() Blocks
	Services() Services
	Reviews() Reviews
	Requests() Requests
	Subscribers() Subscribers
	Images() Images
	// SubscriberByChatID returns ErrNotFound when no subscriber has chatID.
	SubscriberByChatID(ctx context.Context, chatID string) (domain.Subscriber, error)
	Close() error
}

// schema describes how one entity collection is stored. T is the domain
// value handed to callers; R is the persisted record. Most entities persist
// as themselves; blocks persist as domain.BlockRecord.
type schema[T, R any] struct {
	name   string
	encode func(T) (R, error)
	decode func(R) (T, error)
	key    func(R) string
	init   func(*T, string, time.Time, int64)
	less   func(a, b T) bool
	// uniqueColumn/uniqueValue describe the optional unique key
	// beyond the primary key.
	uniqueColumn string
	uniqueValue  func(T) string
}

func (s schema[T, R]) decodeAll(rows []R) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := s.decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return s.less(out[i], out[j]) })
	return out, nil
}

// prepare stamps a new value with identity and encodes it.
func (s schema[T, R]) prepare(v T) (T, R, error) {
	now := time.Now().UTC()
	s.init(&v, uuid.NewString(), now, nextSeq(now))
	r, err := s.encode(v)
	return v, r, err
}

func identity[T any](v T) (T, error) { return v, nil }

var (
	seqMu   sync.Mutex
	seqLast int64
)

// nextSeq returns a process-wide strictly increasing insertion sequence
// derived from the wall clock, so sequences also increase across restarts.
func nextSeq(now time.Time) int64 {
	seqMu.Lock()
	defer seqMu.Unlock()
	n := now.UnixNano()
	if n <= seqLast {
		n = seqLast + 1
	}
	seqLast = n
	return n
}

// newestFirst orders by creation time descending, then by sequence.
func newestFirst(ca, cb time.Time, sa, sb int64) bool {
	if !ca.Equal(cb) {
		return ca.After(cb)
	}
	return sa > sb
}
