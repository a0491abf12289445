// Package repository is the durable CRUD layer for catalogs and quotes. Every
// collection lives under its own kv key as a JSON array and every mutation
// rewrites the whole collection. The store has a single writer; callers must
// not run mutations concurrently.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/quotecalc/internal/kv"
	"github.com/Simplici0/quotecalc/internal/logger"
	"github.com/Simplici0/quotecalc/internal/metrics"
	"github.com/Simplici0/quotecalc/internal/model"
	"github.com/Simplici0/quotecalc/internal/pricing"
)

var (
	// ErrNotFound is returned by mutators whose target quote, view, part or
	// option does not exist. Plain reads return nil instead.
	ErrNotFound = errors.New("not found")
	// ErrLastView is returned when removing the only view of a quote.
	ErrLastView = errors.New("quote must keep at least one view")
)

// Notifier is told after every successful write. The directory mirror uses
// it for auto-save.
type Notifier interface {
	Changed(ctx context.Context)
}

// Repository owns all persistence keys.
type Repository struct {
	store    kv.Store
	log      *logger.Logger
	now      func() time.Time
	notifier Notifier
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the time source used for quote timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// New returns a repository over store.
func New(store kv.Store, log *logger.Logger, opts ...Option) *Repository {
	r := &Repository{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetNotifier installs the change notifier. Pass nil to remove it.
func (r *Repository) SetNotifier(n Notifier) {
	r.notifier = n
}

// Lookup loads materials and clients for the pricing engine.
func (r *Repository) Lookup(ctx context.Context) (pricing.Lookup, error) {
	materials, err := r.Materials(ctx)
	if err != nil {
		return pricing.Lookup{}, err
	}
	clients, err := r.Clients(ctx)
	if err != nil {
		return pricing.Lookup{}, err
	}
	return pricing.NewLookup(materials, clients), nil
}

// loadDocument decodes the document under key into dst. A missing key reports
// false. A document that fails to decode is logged and also reported as
// missing; dst may then hold partial data and callers must reset it to their
// defaults.
func (r *Repository) loadDocument(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.log.Warn("stored document is corrupt, falling back to defaults", "key", key, "err", err)
		metrics.CorruptReads.WithLabelValues(key).Inc()
		return false, nil
	}
	return true, nil
}

func (r *Repository) write(ctx context.Context, key string, v any) error {
	return r.writeBatch(ctx, map[string]any{key: v})
}

// writeBatch persists several documents atomically.
func (r *Repository) writeBatch(ctx context.Context, docs map[string]any) error {
	entries := make(map[string][]byte, len(docs))
	for key, v := range docs {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		entries[key] = raw
	}
	return r.putRaw(ctx, entries)
}

func (r *Repository) putRaw(ctx context.Context, entries map[string][]byte) error {
	var err error
	if len(entries) == 1 {
		for key, raw := range entries {
			err = r.store.Put(ctx, key, raw)
		}
	} else {
		err = r.store.PutBatch(ctx, entries)
	}
	for key := range entries {
		metrics.StoreWrites.WithLabelValues(key, metrics.Outcome(err)).Inc()
	}
	if err != nil {
		return fmt.Errorf("persist collections: %w", err)
	}

	if r.notifier != nil {
		r.notifier.Changed(ctx)
	}
	return nil
}

// collection describes how one entity type is stored.
type collection[T any] struct {
	key     string
	prefix  string
	prepend bool
	id      func(*T) *string
}

func (c collection[T]) list(ctx context.Context, r *Repository) ([]T, error) {
	var items []T
	ok, err := r.loadDocument(ctx, c.key, &items)
	if err != nil {
		return nil, err
	}
	if !ok || items == nil {
		items = []T{}
	}
	return items, nil
}

func (c collection[T]) index(items []T, id string) int {
	for i := range items {
		if *c.id(&items[i]) == id {
			return i
		}
	}
	return -1
}

func (c collection[T]) get(ctx context.Context, r *Repository, id string) (*T, error) {
	items, err := c.list(ctx, r)
	if err != nil {
		return nil, err
	}
	if i := c.index(items, id); i >= 0 {
		return &items[i], nil
	}
	return nil, nil
}

// save replaces the record in place when its id is known, otherwise inserts
// it, generating an id if it has none.
func (c collection[T]) save(ctx context.Context, r *Repository, rec *T) error {
	items, err := c.list(ctx, r)
	if err != nil {
		return err
	}

	id := c.id(rec)
	if *id != "" {
		if i := c.index(items, *id); i >= 0 {
			items[i] = *rec
			return r.write(ctx, c.key, items)
		}
	} else {
		*id = model.NewID(c.prefix)
	}

	if c.prepend {
		items = append([]T{*rec}, items...)
	} else {
		items = append(items, *rec)
	}
	return r.write(ctx, c.key, items)
}

func (c collection[T]) remove(items []T, id string) ([]T, bool) {
	out := items[:0:0]
	removed := false
	for i := range items {
		if *c.id(&items[i]) == id {
			removed = true
			continue
		}
		out = append(out, items[i])
	}
	return out, removed
}

func (c collection[T]) delete(ctx context.Context, r *Repository, id string) error {
	items, err := c.list(ctx, r)
	if err != nil {
		return err
	}
	items, removed := c.remove(items, id)
	if !removed {
		return nil
	}
	return r.write(ctx, c.key, items)
}
