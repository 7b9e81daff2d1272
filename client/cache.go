package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SnapshotCache persists collection rows to a local sqlite file so the next
// session can render from the last known state before the first fetch
// completes. Rows are stored as one JSON blob per collection.
type SnapshotCache struct {
	db *sql.DB
}

func OpenSnapshotCache(path string) (*SnapshotCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot cache: %w", err)
	}
	_, err = db.Exec(`create table if not exists snapshots (
		name text primary key,
		data blob not null,
		saved_at timestamp not null
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init snapshot cache: %w", err)
	}
	return &SnapshotCache{db: db}, nil
}

func (s *SnapshotCache) Close() error { return s.db.Close() }

func (s *SnapshotCache) save(ctx context.Context, name string, rows any) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`insert into snapshots (name, data, saved_at) values (?, ?, ?)
		 on conflict (name) do update set data = excluded.data, saved_at = excluded.saved_at`,
		name, data, time.Now().UTC())
	return err
}

// load unmarshals the named snapshot into out. A missing snapshot is not an
// error; loaded reports whether anything was found.
func (s *SnapshotCache) load(ctx context.Context, name string, out any) (loaded bool, err error) {
	var data []byte
	err = s.db.QueryRowContext(ctx, `select data from snapshots where name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, out)
}

func saveCollection[T any](ctx context.Context, s *SnapshotCache, col *Collection[T]) error {
	return s.save(ctx, col.Name(), col.Rows())
}

func loadCollection[T any](ctx context.Context, s *SnapshotCache, col *Collection[T]) error {
	var rows []T
	loaded, err := s.load(ctx, col.Name(), &rows)
	if err != nil {
		return err
	}
	if loaded {
		col.Seed(rows)
	}
	return nil
}

// Save writes every collection's current rows to the cache.
func (c *Collections) Save(ctx context.Context, cache *SnapshotCache) error {
	if err := saveCollection(ctx, cache, c.Boards); err != nil {
		return err
	}
	if err := saveCollection(ctx, cache, c.Columns); err != nil {
		return err
	}
	if err := saveCollection(ctx, cache, c.Items); err != nil {
		return err
	}
	if err := saveCollection(ctx, cache, c.Comments); err != nil {
		return err
	}
	if err := saveCollection(ctx, cache, c.Assignees); err != nil {
		return err
	}
	if err := saveCollection(ctx, cache, c.Members); err != nil {
		return err
	}
	return saveCollection(ctx, cache, c.Activities)
}

// Load seeds every collection from the cache. Collections stay stale until
// their next Refetch; callers typically Load then RefetchAll.
func (c *Collections) Load(ctx context.Context, cache *SnapshotCache) error {
	if err := loadCollection(ctx, cache, c.Boards); err != nil {
		return err
	}
	if err := loadCollection(ctx, cache, c.Columns); err != nil {
		return err
	}
	if err := loadCollection(ctx, cache, c.Items); err != nil {
		return err
	}
	if err := loadCollection(ctx, cache, c.Comments); err != nil {
		return err
	}
	if err := loadCollection(ctx, cache, c.Assignees); err != nil {
		return err
	}
	if err := loadCollection(ctx, cache, c.Members); err != nil {
		return err
	}
	return loadCollection(ctx, cache, c.Activities)
}
