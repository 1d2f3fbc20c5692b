package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nailstudio/salon-backend/internal/domain"
)

// fileCollection stores one collection as a JSON array in a single file.
// Every mutation reads the whole file, modifies it in memory and writes it
// back through a temp file and rename, so readers never see a partial file.
// There is no locking between concurrent writers.
type fileCollection[T any, P Patch[T], R any] struct {
	s    schema[T, R]
	path string
}

func newFileCollection[T any, P Patch[T], R any](dir string, s schema[T, R]) *fileCollection[T, P, R] {
	return &fileCollection[T, P, R]{s: s, path: filepath.Join(dir, s.name+".json")}
}

// read returns the stored records; exists is false when the file is missing.
func (c *fileCollection[T, P, R]) read() (rows []R, exists bool, err error) {
	raw, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", c.path, err)
	}
	if len(raw) == 0 {
		return nil, true, nil
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, true, fmt.Errorf("decode %s: %w", c.path, err)
	}
	return rows, true, nil
}

func (c *fileCollection[T, P, R]) write(rows []R) error {
	if rows == nil {
		rows = []R{}
	}
	return writeJSONFile(c.path, rows)
}

func (c *fileCollection[T, P, R]) List(_ context.Context) ([]T, error) {
	rows, _, err := c.read()
	if err != nil {
		return nil, err
	}
	return c.s.decodeAll(rows)
}

func (c *fileCollection[T, P, R]) Get(_ context.Context, id string) (T, error) {
	var zero T
	rows, _, err := c.read()
	if err != nil {
		return zero, err
	}
	for _, r := range rows {
		if c.s.key(r) == id {
			return c.s.decode(r)
		}
	}
	return zero, ErrNotFound
}

func (c *fileCollection[T, P, R]) Create(_ context.Context, v T) (T, error) {
	var zero T
	rows, _, err := c.read()
	if err != nil {
		return zero, err
	}
	if c.s.uniqueValue != nil {
		want := c.s.uniqueValue(v)
		for _, r := range rows {
			ex, err := c.s.decode(r)
			if err == nil && c.s.uniqueValue(ex) == want {
				return zero, ErrConflict
			}
		}
	}
	v, r, err := c.s.prepare(v)
	if err != nil {
		return zero, err
	}
	if err := c.write(append(rows, r)); err != nil {
		return zero, err
	}
	return v, nil
}

func (c *fileCollection[T, P, R]) Update(_ context.Context, id string, p P) (T, error) {
	var zero T
	rows, _, err := c.read()
	if err != nil {
		return zero, err
	}
	for i, r := range rows {
		if c.s.key(r) != id {
			continue
		}
		v, err := c.s.decode(r)
		if err != nil {
			return zero, err
		}
		p.Apply(&v)
		if rows[i], err = c.s.encode(v); err != nil {
			return zero, err
		}
		if err := c.write(rows); err != nil {
			return zero, err
		}
		return v, nil
	}
	return zero, ErrNotFound
}

func (c *fileCollection[T, P, R]) Delete(_ context.Context, id string) error {
	rows, _, err := c.read()
	if err != nil {
		return err
	}
	kept := rows[:0]
	found := false
	for _, r := range rows {
		if c.s.key(r) == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return ErrNotFound
	}
	return c.write(kept)
}

func (c *fileCollection[T, P, R]) findUnique(ctx context.Context, value string) (T, error) {
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

// seedIfAbsent writes items only when the collection file does not exist
// yet. An existing empty file stays empty.
func (c *fileCollection[T, P, R]) seedIfAbsent(_ context.Context, items []T) (bool, error) {
	_, exists, err := c.read()
	if err != nil || exists {
		return false, err
	}
	rows := make([]R, 0, len(items))
	for _, it := range items {
		_, r, err := c.s.prepare(it)
		if err != nil {
			return false, err
		}
		rows = append(rows, r)
	}
	return true, c.write(rows)
}

// fileSettings stores the singleton as a JSON object in settings.json.
type fileSettings struct {
	path string
}

func (f *fileSettings) load(_ context.Context) (domain.Settings, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Settings{}, ErrNotFound
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("read %s: %w", f.path, err)
	}
	var s domain.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Settings{}, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return s, nil
}

func (f *fileSettings) save(_ context.Context, s domain.Settings) error {
	return writeJSONFile(f.path, s)
}

// writeJSONFile writes v as indented JSON via a temp file in the same
// directory followed by a rename.
func writeJSONFile(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// NewFile returns a durable Store rooted at dir, creating the directory
// when needed. Collection files are created lazily by Seed or the first
// write.
func NewFile(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &store{
		settings:    newSettingsRepo(&fileSettings{path: filepath.Join(dir, "settings.json")}),
		blocks:      newFileCollection[domain.Block, domain.BlockPatch](dir, blockSchema),
		services:    newFileCollection[domain.Service, domain.ServicePatch](dir, serviceSchema),
		reviews:     newFileCollection[domain.Review, domain.ReviewPatch](dir, reviewSchema),
		requests:    newFileCollection[domain.Request, domain.NoPatch[domain.Request]](dir, requestSchema),
		subscribers: newFileCollection[domain.Subscriber, domain.NoPatch[domain.Subscriber]](dir, subscriberSchema),
		images:      newFileCollection[domain.Image, domain.NoPatch[domain.Image]](dir, imageSchema),
		closer:      func() error { return nil },
	}, nil
}
