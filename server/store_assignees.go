package main

import (
	"context"
	"database/sql"
	"errors"

	"kanbanlite/model"
)

const assigneeCols = `id, board_id, name, account_id, created_at`

func scanAssignee(row interface{ Scan(...any) error }) (model.Assignee, error) {
	var a model.Assignee
	err := row.Scan(&a.ID, &a.BoardID, &a.Name, &a.AccountID, &a.CreatedAt)
	return a, err
}

func (s *Store) AssigneesForAccount(ctx context.Context, accountID int64) ([]model.Assignee, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+assigneeCols+` from assignees
		 where board_id in (select board_id from board_members where account_id=$1)
		 order by board_id, lower(name), id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Assignee
	for rows.Next() {
		a, err := scanAssignee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) AssigneesByBoard(ctx context.Context, boardID int64) ([]model.Assignee, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+assigneeCols+` from assignees where board_id=$1 order by lower(name), id`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Assignee
	for rows.Next() {
		a, err := scanAssignee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAssignee(ctx context.Context, id int64) (model.Assignee, error) {
	a, err := scanAssignee(s.db.QueryRowContext(ctx, `select `+assigneeCols+` from assignees where id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Assignee{}, model.ErrNotFound
	}
	return a, err
}

// CreateAssignee dedupes by case-insensitive name per board: creating
// "Alice" where "ALICE" exists returns the existing row. The unique index on
// (board_id, lower(name)) backs this up under concurrency; on conflict we
// re-read the winner.
func (s *Store) CreateAssignee(ctx context.Context, boardID int64, name string, accountID *int64) (model.Assignee, error) {
	existing, err := s.assigneeByName(ctx, boardID, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Assignee{}, err
	}
	a, err := scanAssignee(s.db.QueryRowContext(ctx,
		`insert into assignees(board_id, name, account_id) values($1,$2,$3)
		 on conflict (board_id, lower(name)) do nothing
		 returning `+assigneeCols,
		boardID, name, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		// lost the race, the earlier row wins
		return s.assigneeByName(ctx, boardID, name)
	}
	return a, err
}

func (s *Store) assigneeByName(ctx context.Context, boardID int64, name string) (model.Assignee, error) {
	a, err := scanAssignee(s.db.QueryRowContext(ctx,
		`select `+assigneeCols+` from assignees where board_id=$1 and lower(name)=lower($2)`,
		boardID, model.NormalizeAssigneeName(name)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Assignee{}, model.ErrNotFound
	}
	return a, err
}

func (s *Store) DeleteAssignee(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from assignees where id=$1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
