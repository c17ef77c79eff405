// Package collection persists small ordered collections of identified items
// as a single JSON document per key.
//
// The whole collection is read once at start and rewritten on every
// mutation. Order is insertion order; replacing an item keeps its position.
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kingrea/dutyflow/internal/failure"
	"github.com/kingrea/dutyflow/internal/storage"
)

// Item is anything with a stable id.
type Item interface {
	ItemID() string
}

// Load returns the sequence stored under key, or def when the key is absent
// or its contents do not parse. It never fails; problems are logged.
func Load[T Item](ctx context.Context, port storage.Port, key string, def []T, log zerolog.Logger) []T {
	if port == nil {
		return def
	}
	data, err := port.Read(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Error().Err(err).Str("key", key).Msg("collection read failed")
		}
		return def
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("collection unparseable, using default")
		return def
	}
	if items == nil {
		return def
	}
	return items
}

// Save writes items under key.
func Save[T Item](ctx context.Context, port storage.Port, key string, items []T, log zerolog.Logger) error {
	const op = "collection: save"
	if port == nil {
		return failure.Persistence(op, errors.New("no storage configured"))
	}
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("collection encode failed")
		return failure.Persistence(op, err)
	}
	if err := port.Write(ctx, key, data); err != nil {
		log.Error().Err(err).Str("key", key).Msg("collection write failed")
		return failure.Persistence(op, err)
	}
	return nil
}

// Upsert replaces the item with the same id in place, or appends it. The
// input slice is not modified.
func Upsert[T Item](items []T, item T) []T {
	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	for i := range out {
		if out[i].ItemID() == item.ItemID() {
			out[i] = item
			return out
		}
	}
	return append(out, item)
}

// Remove drops every item with id. Removing an absent id returns an equal
// collection.
func Remove[T Item](items []T, id string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if it.ItemID() != id {
			out = append(out, it)
		}
	}
	return out
}

// Index returns the position of id, or -1.
func Index[T Item](items []T, id string) int {
	for i, it := range items {
		if it.ItemID() == id {
			return i
		}
	}
	return -1
}

// Collection is a loaded collection bound to its storage key.
type Collection[T Item] struct {
	port storage.Port
	key  string
	log  zerolog.Logger

	mu    sync.RWMutex
	items []T
}

// Open loads key from port. A missing or corrupt document yields an empty
// collection.
func Open[T Item](ctx context.Context, port storage.Port, key string, log zerolog.Logger) *Collection[T] {
	return &Collection[T]{
		port:  port,
		key:   key,
		log:   log,
		items: Load(ctx, port, key, []T{}, log),
	}
}

// Items returns a copy of the collection in order.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// Len is the number of items.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get looks up an item by id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := Index(c.items, id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Put upserts item and persists. created reports whether the id was new.
// On a persistence error the in-memory collection still holds the item.
func (c *Collection[T]) Put(ctx context.Context, item T) (created bool, err error) {
	c.mu.Lock()
	created = Index(c.items, item.ItemID()) < 0
	c.items = Upsert(c.items, item)
	snapshot := c.items
	c.mu.Unlock()
	return created, Save(ctx, c.port, c.key, snapshot, c.log)
}

// Delete removes id and persists. removed reports whether it was present.
func (c *Collection[T]) Delete(ctx context.Context, id string) (removed bool, err error) {
	c.mu.Lock()
	removed = Index(c.items, id) >= 0
	c.items = Remove(c.items, id)
	snapshot := c.items
	c.mu.Unlock()
	return removed, Save(ctx, c.port, c.key, snapshot, c.log)
}
