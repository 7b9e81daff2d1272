package main

import (
	"context"
	"database/sql"

	"kanbanlite/model"
)

const activityCols = `id, board_id, item_id, account_id, type, content, created_at`

func scanActivity(row interface{ Scan(...any) error }) (model.Activity, error) {
	var a model.Activity
	err := row.Scan(&a.ID, &a.BoardID, &a.ItemID, &a.AccountID, &a.Type, &a.Content, &a.CreatedAt)
	return a, err
}

func (s *Store) activityRows(ctx context.Context, query string, args ...any) ([]model.Activity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ActivitiesForAccount(ctx context.Context, accountID int64) ([]model.Activity, error) {
	return s.activityRows(ctx,
		`select `+activityCols+` from activities
		 where board_id in (select board_id from board_members where account_id=$1)
		 order by created_at desc, id desc`, accountID)
}

func (s *Store) ActivitiesByBoard(ctx context.Context, boardID int64) ([]model.Activity, error) {
	return s.activityRows(ctx,
		`select `+activityCols+` from activities where board_id=$1 order by created_at desc, id desc`, boardID)
}

func (s *Store) ActivitiesByItem(ctx context.Context, itemID int64) ([]model.Activity, error) {
	return s.activityRows(ctx,
		`select `+activityCols+` from activities where item_id=$1 order by created_at desc, id desc`, itemID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertActivity(ctx context.Context, db execer, a model.Activity) error {
	_, err := db.ExecContext(ctx,
		`insert into activities(board_id, item_id, account_id, type, content) values($1,$2,$3,$4,$5)`,
		a.BoardID, a.ItemID, a.AccountID, a.Type, a.Content)
	return err
}

func insertActivityTx(ctx context.Context, tx *sql.Tx, a model.Activity) error {
	return insertActivity(ctx, tx, a)
}

// LogActivities appends the derived rows. Rows are append-only; nothing ever
// updates or deletes them short of a board delete cascade.
func (s *Store) LogActivities(ctx context.Context, acts []model.Activity) error {
	for _, a := range acts {
		if err := insertActivity(ctx, s.db, a); err != nil {
			return err
		}
	}
	return nil
}
