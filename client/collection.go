package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrReadOnly is returned by mutation calls on collections that have no
// mutation hooks wired (activities, members).
var ErrReadOnly = errors.New("collection is read-only")

// Op names a mutation kind for invalidation wiring.
type Op int

const (
	OpInsert Op = iota
	OpUpdate
	OpDelete
)

// Refetcher is what a collection knows about the collections it invalidates.
type Refetcher interface {
	Name() string
	Refetch(ctx context.Context) error
}

// CollectionConfig wires one entity type to its server endpoints. Fetch is
// required; the mutation hooks may be nil for read-only collections. Each
// hook must return an error on failure so the optimistic write can be rolled
// back.
type CollectionConfig[T any] struct {
	Name   string
	Key    func(T) string
	Fetch  func(ctx context.Context) ([]T, error)
	Insert func(ctx context.Context, row T) (T, error)
	Update func(ctx context.Context, row T) (T, error)
	Delete func(ctx context.Context, row T) error
}

// Collection is an in-memory cache of one entity type with optimistic
// mutations. Inserts are stored under a provisional key until the server
// responds with the canonical row; failed mutations are rolled back to the
// pre-mutation state. Every visible change bumps the version and notifies
// subscribers.
type Collection[T any] struct {
	cfg CollectionConfig[T]
	log *slog.Logger

	mu      sync.RWMutex
	rows    map[string]T
	version uint64
	stale   bool

	invalidates map[Op][]Refetcher

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

func NewCollection[T any](cfg CollectionConfig[T], log *slog.Logger) *Collection[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Collection[T]{
		cfg:         cfg,
		log:         log,
		rows:        make(map[string]T),
		stale:       true,
		invalidates: make(map[Op][]Refetcher),
		subs:        make(map[chan struct{}]struct{}),
	}
}

func (c *Collection[T]) Name() string { return c.cfg.Name }

// InvalidatesOn registers collections to refetch after op succeeds on the
// server. Registration happens once at wiring time, before any mutations.
func (c *Collection[T]) InvalidatesOn(op Op, deps ...Refetcher) {
	c.invalidates[op] = append(c.invalidates[op], deps...)
}

// Refetch replaces the cached rows wholesale with the server's current
// state. On failure the collection is marked stale and keeps its rows.
func (c *Collection[T]) Refetch(ctx context.Context) error {
	rows, err := c.cfg.Fetch(ctx)
	if err != nil {
		c.mu.Lock()
		c.stale = true
		c.mu.Unlock()
		return err
	}
	next := make(map[string]T, len(rows))
	for _, row := range rows {
		next[c.cfg.Key(row)] = row
	}
	c.mu.Lock()
	c.rows = next
	c.stale = false
	c.version++
	c.mu.Unlock()
	c.notify()
	return nil
}

// Seed loads rows without talking to the server, e.g. from a local snapshot.
// The collection stays stale until the next successful Refetch.
func (c *Collection[T]) Seed(rows []T) {
	next := make(map[string]T, len(rows))
	for _, row := range rows {
		next[c.cfg.Key(row)] = row
	}
	c.mu.Lock()
	c.rows = next
	c.version++
	c.mu.Unlock()
	c.notify()
}

// Invalidate marks the collection stale without touching its rows.
func (c *Collection[T]) Invalidate() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
	c.notify()
}

func (c *Collection[T]) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}

func (c *Collection[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Rows returns a snapshot of all cached rows in no particular order. Live
// queries sort.
func (c *Collection[T]) Rows() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.rows))
	for _, row := range c.rows {
		out = append(out, row)
	}
	return out
}

func (c *Collection[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	row, ok := c.rows[key]
	return row, ok
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rows)
}

// Subscribe returns a channel that receives a signal after any visible
// change, and a cancel func. The channel is buffered and coalescing: rapid
// changes may collapse into one signal.
func (c *Collection[T]) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.subMu.Lock()
	c.subs[ch] = struct{}{}
	c.subMu.Unlock()
	return ch, func() {
		c.subMu.Lock()
		delete(c.subs, ch)
		c.subMu.Unlock()
	}
}

func (c *Collection[T]) notify() {
	c.subMu.Lock()
	for ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	c.subMu.Unlock()
}

func (c *Collection[T]) runInvalidations(ctx context.Context, op Op) {
	for _, dep := range c.invalidates[op] {
		if err := dep.Refetch(ctx); err != nil {
			c.log.Warn("invalidation refetch failed", "from", c.cfg.Name, "to", dep.Name(), "err", err)
		}
	}
}

// Insert applies row under a provisional key, confirms against the server,
// then remaps to the canonical key. On server failure the provisional row is
// removed and the hook's error returned.
func (c *Collection[T]) Insert(ctx context.Context, row T) (T, error) {
	var zero T
	if c.cfg.Insert == nil {
		return zero, ErrReadOnly
	}
	provisional := "pending-" + uuid.NewString()
	c.mu.Lock()
	c.rows[provisional] = row
	c.version++
	c.mu.Unlock()
	c.notify()

	confirmed, err := c.cfg.Insert(ctx, row)
	if err != nil {
		c.mu.Lock()
		delete(c.rows, provisional)
		c.version++
		c.mu.Unlock()
		c.notify()
		return zero, err
	}
	c.mu.Lock()
	delete(c.rows, provisional)
	c.rows[c.cfg.Key(confirmed)] = confirmed
	c.version++
	c.mu.Unlock()
	c.notify()
	c.runInvalidations(ctx, OpInsert)
	return confirmed, nil
}

// Update applies mutate to the cached row, confirms against the server, and
// stores the server's row. On failure the pre-mutation row is restored. When
// concurrent updates race, the last server response to land wins; callers
// who need the canonical end state refetch.
func (c *Collection[T]) Update(ctx context.Context, key string, mutate func(T) T) (T, error) {
	var zero T
	if c.cfg.Update == nil {
		return zero, ErrReadOnly
	}
	c.mu.Lock()
	prev, ok := c.rows[key]
	if !ok {
		c.mu.Unlock()
		return zero, errors.New("update: no cached row " + key)
	}
	next := mutate(prev)
	c.rows[key] = next
	c.version++
	c.mu.Unlock()
	c.notify()

	confirmed, err := c.cfg.Update(ctx, next)
	if err != nil {
		c.mu.Lock()
		c.rows[key] = prev
		c.version++
		c.mu.Unlock()
		c.notify()
		return zero, err
	}
	c.mu.Lock()
	c.rows[c.cfg.Key(confirmed)] = confirmed
	c.version++
	c.mu.Unlock()
	c.notify()
	c.runInvalidations(ctx, OpUpdate)
	return confirmed, nil
}

// Delete removes the cached row, confirms against the server, and restores
// the row on failure.
func (c *Collection[T]) Delete(ctx context.Context, key string) error {
	if c.cfg.Delete == nil {
		return ErrReadOnly
	}
	c.mu.Lock()
	prev, ok := c.rows[key]
	if !ok {
		c.mu.Unlock()
		return errors.New("delete: no cached row " + key)
	}
	delete(c.rows, key)
	c.version++
	c.mu.Unlock()
	c.notify()

	if err := c.cfg.Delete(ctx, prev); err != nil {
		c.mu.Lock()
		c.rows[key] = prev
		c.version++
		c.mu.Unlock()
		c.notify()
		return err
	}
	c.runInvalidations(ctx, OpDelete)
	return nil
}
