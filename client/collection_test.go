package client

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   int64
	Text string
}

// fakeBackend is an in-memory server side for collection tests. Hooks can be
// overridden per test to inject failures or control response timing.
type fakeBackend struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]note

	failInsert error
	failUpdate error
	failDelete error
	onUpdate   func(n note) // called before the update is applied
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{nextID: 1, rows: map[int64]note{}}
}

func (b *fakeBackend) fetch(ctx context.Context) ([]note, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]note, 0, len(b.rows))
	for _, n := range b.rows {
		out = append(out, n)
	}
	return out, nil
}

func (b *fakeBackend) insert(ctx context.Context, n note) (note, error) {
	if b.failInsert != nil {
		return note{}, b.failInsert
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	n.ID = b.nextID
	b.nextID++
	b.rows[n.ID] = n
	return n, nil
}

func (b *fakeBackend) update(ctx context.Context, n note) (note, error) {
	if b.onUpdate != nil {
		b.onUpdate(n)
	}
	if b.failUpdate != nil {
		return note{}, b.failUpdate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows[n.ID] = n
	return n, nil
}

func (b *fakeBackend) remove(ctx context.Context, n note) error {
	if b.failDelete != nil {
		return b.failDelete
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rows, n.ID)
	return nil
}

func newNoteCollection(b *fakeBackend) *Collection[note] {
	return NewCollection(CollectionConfig[note]{
		Name:   "notes",
		Key:    func(n note) string { return strconv.FormatInt(n.ID, 10) },
		Fetch:  b.fetch,
		Insert: b.insert,
		Update: b.update,
		Delete: b.remove,
	}, nil)
}

func TestInsertRemapsProvisionalKey(t *testing.T) {
	b := newFakeBackend()
	col := newNoteCollection(b)
	ctx := context.Background()

	confirmed, err := col.Insert(ctx, note{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), confirmed.ID)

	// the provisional row is gone, only the canonical key remains
	assert.Equal(t, 1, col.Len())
	got, ok := col.Get("1")
	require.True(t, ok)
	assert.Equal(t, "hello", got.Text)
}

func TestInsertRollsBackOnFailure(t *testing.T) {
	b := newFakeBackend()
	b.failInsert = errors.New("boom")
	col := newNoteCollection(b)

	_, err := col.Insert(context.Background(), note{Text: "hello"})
	require.Error(t, err)
	assert.Equal(t, 0, col.Len(), "provisional row removed on failure")
}

func TestUpdateOptimisticThenConfirmed(t *testing.T) {
	b := newFakeBackend()
	col := newNoteCollection(b)
	ctx := context.Background()
	_, err := col.Insert(ctx, note{Text: "v1"})
	require.NoError(t, err)

	var seenOptimistic bool
	b.onUpdate = func(n note) {
		// while the request is in flight, the cache already shows v2
		got, ok := col.Get("1")
		seenOptimistic = ok && got.Text == "v2"
	}

	_, err = col.Update(ctx, "1", func(n note) note { n.Text = "v2"; return n })
	require.NoError(t, err)
	assert.True(t, seenOptimistic)

	got, _ := col.Get("1")
	assert.Equal(t, "v2", got.Text)
}

func TestUpdateRollsBackOnFailure(t *testing.T) {
	b := newFakeBackend()
	col := newNoteCollection(b)
	ctx := context.Background()
	_, err := col.Insert(ctx, note{Text: "v1"})
	require.NoError(t, err)

	b.failUpdate = errors.New("boom")
	_, err = col.Update(ctx, "1", func(n note) note { n.Text = "v2"; return n })
	require.Error(t, err)

	got, _ := col.Get("1")
	assert.Equal(t, "v1", got.Text, "optimistic patch reverted")
}

func TestDeleteRollsBackOnFailure(t *testing.T) {
	b := newFakeBackend()
	col := newNoteCollection(b)
	ctx := context.Background()
	_, err := col.Insert(ctx, note{Text: "v1"})
	require.NoError(t, err)

	b.failDelete = errors.New("boom")
	require.Error(t, col.Delete(ctx, "1"))
	_, ok := col.Get("1")
	assert.True(t, ok, "row restored after failed delete")

	b.failDelete = nil
	require.NoError(t, col.Delete(ctx, "1"))
	assert.Equal(t, 0, col.Len())
}

func TestConcurrentUpdatesConvergeAfterRefetch(t *testing.T) {
	b := newFakeBackend()
	col := newNoteCollection(b)
	ctx := context.Background()
	_, err := col.Insert(ctx, note{Text: "A"})
	require.NoError(t, err)

	// Three racing edits; whatever lands last on the backend is canonical.
	var wg sync.WaitGroup
	for _, text := range []string{"B", "C", "D"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			_, _ = col.Update(ctx, "1", func(n note) note { n.Text = text; return n })
		}(text)
	}
	wg.Wait()

	// A refetch always converges the cache on the backend's row.
	require.NoError(t, col.Refetch(ctx))
	got, _ := col.Get("1")
	b.mu.Lock()
	want := b.rows[1].Text
	b.mu.Unlock()
	assert.Equal(t, want, got.Text)
}

func TestRefetchReplacesRowsWholesale(t *testing.T) {
	b := newFakeBackend()
	col := newNoteCollection(b)
	ctx := context.Background()

	col.Seed([]note{{ID: 99, Text: "stale row"}})
	_, ok := col.Get("99")
	require.True(t, ok)

	b.rows[1] = note{ID: 1, Text: "fresh"}
	require.NoError(t, col.Refetch(ctx))

	_, ok = col.Get("99")
	assert.False(t, ok, "rows not on the server disappear")
	got, ok := col.Get("1")
	require.True(t, ok)
	assert.Equal(t, "fresh", got.Text)
	assert.False(t, col.Stale())
}

func TestRefetchFailureMarksStale(t *testing.T) {
	fetchErr := errors.New("network down")
	col := NewCollection(CollectionConfig[note]{
		Name:  "notes",
		Key:   func(n note) string { return strconv.FormatInt(n.ID, 10) },
		Fetch: func(ctx context.Context) ([]note, error) { return nil, fetchErr },
	}, nil)
	col.Seed([]note{{ID: 1, Text: "cached"}})

	err := col.Refetch(context.Background())
	assert.ErrorIs(t, err, fetchErr)
	assert.True(t, col.Stale())
	// cached rows survive a failed refetch
	got, ok := col.Get("1")
	require.True(t, ok)
	assert.Equal(t, "cached", got.Text)
}

func TestReadOnlyCollection(t *testing.T) {
	col := NewCollection(CollectionConfig[note]{
		Name:  "notes",
		Key:   func(n note) string { return strconv.FormatInt(n.ID, 10) },
		Fetch: func(ctx context.Context) ([]note, error) { return nil, nil },
	}, nil)

	_, err := col.Insert(context.Background(), note{})
	assert.ErrorIs(t, err, ErrReadOnly)
	_, err = col.Update(context.Background(), "1", func(n note) note { return n })
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.ErrorIs(t, col.Delete(context.Background(), "1"), ErrReadOnly)
}

func TestSubscribeNotifiesOnChange(t *testing.T) {
	b := newFakeBackend()
	col := newNoteCollection(b)
	ch, cancel := col.Subscribe()
	defer cancel()

	before := col.Version()
	_, err := col.Insert(context.Background(), note{Text: "x"})
	require.NoError(t, err)

	select {
	case <-ch:
	default:
		t.Fatal("expected a change signal")
	}
	assert.Greater(t, col.Version(), before)
}

// countingRefetcher stands in for a dependent collection.
type countingRefetcher struct {
	name  string
	count int
	err   error
}

func (c *countingRefetcher) Name() string { return c.name }
func (c *countingRefetcher) Refetch(ctx context.Context) error {
	c.count++
	return c.err
}

func TestInvalidationRunsOnlyOnSuccess(t *testing.T) {
	b := newFakeBackend()
	col := newNoteCollection(b)
	dep := &countingRefetcher{name: "activities"}
	col.InvalidatesOn(OpInsert, dep)
	col.InvalidatesOn(OpDelete, dep)

	ctx := context.Background()
	_, err := col.Insert(ctx, note{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, dep.count)

	b.failInsert = errors.New("boom")
	_, _ = col.Insert(ctx, note{Text: "y"})
	assert.Equal(t, 1, dep.count, "failed mutation must not invalidate")

	require.NoError(t, col.Delete(ctx, "1"))
	assert.Equal(t, 2, dep.count)
}

func TestInvalidationFailureIsNonFatal(t *testing.T) {
	b := newFakeBackend()
	col := newNoteCollection(b)
	dep := &countingRefetcher{name: "activities", err: errors.New("fetch failed")}
	col.InvalidatesOn(OpInsert, dep)

	_, err := col.Insert(context.Background(), note{Text: "x"})
	assert.NoError(t, err, "the primary mutation still succeeds")
	assert.Equal(t, 1, dep.count)
}
