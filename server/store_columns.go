package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"kanbanlite/model"
)

const columnCols = `id, board_id, name, coalesce(color,''), position, is_default, is_expanded, shortcut, created_at`

func scanColumn(row interface{ Scan(...any) error }) (model.Column, error) {
	var c model.Column
	err := row.Scan(&c.ID, &c.BoardID, &c.Name, &c.Color, &c.Order, &c.IsDefault, &c.IsExpanded, &c.Shortcut, &c.CreatedAt)
	return c, err
}

// ColumnsForAccount returns the columns of every board visible to the
// account. Board-level filtering happens client-side.
func (s *Store) ColumnsForAccount(ctx context.Context, accountID int64) ([]model.Column, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+columnCols+` from columns
		 where board_id in (select board_id from board_members where account_id=$1)
		 order by board_id, position, id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Column
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ColumnsByBoard(ctx context.Context, boardID int64) ([]model.Column, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+columnCols+` from columns where board_id=$1 order by position, id`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Column
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetColumn(ctx context.Context, id int64) (model.Column, error) {
	c, err := scanColumn(s.db.QueryRowContext(ctx, `select `+columnCols+` from columns where id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Column{}, model.ErrNotFound
	}
	return c, err
}

// CreateColumn appends the column at max(position)+1 within the board. The
// max+1 read and the insert share a transaction; concurrent creators can
// still tie and ties break by id on read.
func (s *Store) CreateColumn(ctx context.Context, boardID int64, name string) (model.Column, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Column{}, err
	}
	defer func() { _ = tx.Rollback() }()
	var next int64
	if err := tx.QueryRowContext(ctx,
		`select coalesce(max(position),-1)+1 from columns where board_id=$1`, boardID).Scan(&next); err != nil {
		return model.Column{}, err
	}
	c, err := scanColumn(tx.QueryRowContext(ctx,
		`insert into columns(board_id, name, position) values($1,$2,$3) returning `+columnCols,
		boardID, name, next))
	if err != nil {
		return model.Column{}, err
	}
	return c, tx.Commit()
}

// ColumnPatch carries the updatable fields; nil means unchanged. Shortcut
// uses sql.NullString so a patch can clear it.
type ColumnPatch struct {
	Name       *string
	Color      *string
	Order      *int64
	IsExpanded *bool
	Shortcut   *sql.NullString
}

func (s *Store) UpdateColumn(ctx context.Context, id int64, p ColumnPatch) (model.Column, error) {
	set := []string{}
	args := []any{}
	idx := 1
	add := func(expr string, v any) {
		set = append(set, fmt.Sprintf(expr, idx))
		args = append(args, v)
		idx++
	}
	if p.Name != nil {
		add("name=$%d", *p.Name)
	}
	if p.Color != nil {
		add("color=nullif($%d,'')", *p.Color)
	}
	if p.Order != nil {
		add("position=$%d", *p.Order)
	}
	if p.IsExpanded != nil {
		add("is_expanded=$%d", *p.IsExpanded)
	}
	if p.Shortcut != nil {
		add("shortcut=$%d", *p.Shortcut)
	}
	if len(set) == 0 {
		return s.GetColumn(ctx, id)
	}
	q := fmt.Sprintf(`update columns set %s where id=$%d returning `+columnCols, strings.Join(set, ", "), idx)
	args = append(args, id)
	c, err := scanColumn(s.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Column{}, model.ErrNotFound
	}
	return c, err
}

// DeleteColumn removes the column (items cascade) and returns the deleted
// row so the caller can log the activity with the column name.
func (s *Store) DeleteColumn(ctx context.Context, id int64) (model.Column, error) {
	c, err := scanColumn(s.db.QueryRowContext(ctx,
		`delete from columns where id=$1 returning `+columnCols, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Column{}, model.ErrNotFound
	}
	return c, err
}
