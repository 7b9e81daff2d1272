package main

import (
	"context"
	"database/sql"
	"errors"

	"kanbanlite/model"
)

const boardCols = `id, account_id, name, coalesce(color,''), created_at, updated_at`

func scanBoard(row interface{ Scan(...any) error }) (model.Board, error) {
	var b model.Board
	err := row.Scan(&b.ID, &b.AccountID, &b.Name, &b.Color, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// BoardsForAccount returns every board the account owns or is a member of.
func (s *Store) BoardsForAccount(ctx context.Context, accountID int64) ([]model.Board, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+boardCols+` from boards
		 where id in (select board_id from board_members where account_id=$1)
		 order by created_at, id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// defaultColumns are seeded on every new board, in this order.
var defaultColumns = []string{"Todo", "In Progress", "Done"}

// CreateBoard inserts the board, its owner membership row and the default
// columns in one transaction.
func (s *Store) CreateBoard(ctx context.Context, accountID int64, name, color string) (model.Board, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Board{}, err
	}
	defer func() { _ = tx.Rollback() }()

	b, err := scanBoard(tx.QueryRowContext(ctx,
		`insert into boards(account_id, name, color) values($1,$2,nullif($3,'')) returning `+boardCols,
		accountID, name, color))
	if err != nil {
		return model.Board{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`insert into board_members(board_id, account_id, role) values($1,$2,$3)`,
		b.ID, accountID, model.RoleOwner); err != nil {
		return model.Board{}, err
	}
	for i, name := range defaultColumns {
		if _, err := tx.ExecContext(ctx,
			`insert into columns(board_id, name, position, is_default) values($1,$2,$3,true)`,
			b.ID, name, i); err != nil {
			return model.Board{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Board{}, err
	}
	return b, nil
}

func (s *Store) GetBoard(ctx context.Context, id int64) (model.Board, error) {
	b, err := scanBoard(s.db.QueryRowContext(ctx, `select `+boardCols+` from boards where id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Board{}, model.ErrNotFound
	}
	return b, err
}

func (s *Store) UpdateBoard(ctx context.Context, id int64, name, color *string) (model.Board, error) {
	b, err := scanBoard(s.db.QueryRowContext(ctx,
		`update boards set name=coalesce($1,name), color=coalesce(nullif($2,''),color), updated_at=now()
		 where id=$3 returning `+boardCols,
		name, color, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Board{}, model.ErrNotFound
	}
	return b, err
}

func (s *Store) DeleteBoard(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from boards where id=$1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
