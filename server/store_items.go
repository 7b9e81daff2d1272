package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"kanbanlite/model"
)

const itemCols = `id, board_id, column_id, title, content, position, created_by, assignee_id, created_at, updated_at, last_active_at`

func scanItem(row interface{ Scan(...any) error }) (model.Item, error) {
	var it model.Item
	err := row.Scan(&it.ID, &it.BoardID, &it.ColumnID, &it.Title, &it.Content, &it.Order,
		&it.CreatedBy, &it.AssigneeID, &it.CreatedAt, &it.UpdatedAt, &it.LastActiveAt)
	return it, err
}

func (s *Store) itemRows(ctx context.Context, query string, args ...any) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) ItemsForAccount(ctx context.Context, accountID int64) ([]model.Item, error) {
	return s.itemRows(ctx,
		`select `+itemCols+` from items
		 where board_id in (select board_id from board_members where account_id=$1)
		 order by board_id, column_id, position, id`, accountID)
}

func (s *Store) ItemsByBoard(ctx context.Context, boardID int64) ([]model.Item, error) {
	return s.itemRows(ctx,
		`select `+itemCols+` from items where board_id=$1 order by column_id, position, id`, boardID)
}

func (s *Store) GetItem(ctx context.Context, id int64) (model.Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx, `select `+itemCols+` from items where id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, model.ErrNotFound
	}
	return it, err
}

// CreateItem appends the item at max(position)+1 within its column.
func (s *Store) CreateItem(ctx context.Context, boardID, columnID int64, title string, content *string, createdBy int64) (model.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Item{}, err
	}
	defer func() { _ = tx.Rollback() }()
	var next int64
	if err := tx.QueryRowContext(ctx,
		`select coalesce(max(position),-1)+1 from items where column_id=$1`, columnID).Scan(&next); err != nil {
		return model.Item{}, err
	}
	it, err := scanItem(tx.QueryRowContext(ctx,
		`insert into items(board_id, column_id, title, content, position, created_by)
		 values($1,$2,$3,$4,$5,$6) returning `+itemCols,
		boardID, columnID, title, content, next, createdBy))
	if err != nil {
		return model.Item{}, err
	}
	return it, tx.Commit()
}

// ItemPatch carries the updatable fields; nil means unchanged. AssigneeID
// uses sql.NullInt64 so a patch can clear the assignee.
type ItemPatch struct {
	Title      *string
	Content    *string
	ColumnID   *int64
	Order      *int64
	AssigneeID *sql.NullInt64
}

// UpdateItem applies the patch and bumps updated_at and last_active_at.
// Every update counts as activity for "recently active" sorting.
func (s *Store) UpdateItem(ctx context.Context, id int64, p ItemPatch) (model.Item, error) {
	set := []string{"updated_at=now()", "last_active_at=now()"}
	args := []any{}
	idx := 1
	add := func(expr string, v any) {
		set = append(set, fmt.Sprintf(expr, idx))
		args = append(args, v)
		idx++
	}
	if p.Title != nil {
		add("title=$%d", *p.Title)
	}
	if p.Content != nil {
		add("content=nullif($%d,'')", *p.Content)
	}
	if p.ColumnID != nil {
		add("column_id=$%d", *p.ColumnID)
	}
	if p.Order != nil {
		add("position=$%d", *p.Order)
	}
	if p.AssigneeID != nil {
		add("assignee_id=$%d", *p.AssigneeID)
	}
	q := fmt.Sprintf(`update items set %s where id=$%d returning `+itemCols, strings.Join(set, ", "), idx)
	args = append(args, id)
	it, err := scanItem(s.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, model.ErrNotFound
	}
	return it, err
}

// DeleteItem removes the item and its comments. Activity rows keep their
// item_id so the feed still shows what happened to a deleted card.
func (s *Store) DeleteItem(ctx context.Context, id int64) (model.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Item{}, err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `delete from comments where item_id=$1`, id); err != nil {
		return model.Item{}, err
	}
	it, err := scanItem(tx.QueryRowContext(ctx, `delete from items where id=$1 returning `+itemCols, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, model.ErrNotFound
	}
	if err != nil {
		return model.Item{}, err
	}
	return it, tx.Commit()
}
