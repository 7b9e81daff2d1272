package main

import (
	"context"
	"database/sql"
	"errors"

	"kanbanlite/model"
)

const commentCols = `id, item_id, account_id, content, created_at, updated_at`

func scanComment(row interface{ Scan(...any) error }) (model.Comment, error) {
	var c model.Comment
	err := row.Scan(&c.ID, &c.ItemID, &c.AccountID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) commentRows(ctx context.Context, query string, args ...any) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CommentsForAccount(ctx context.Context, accountID int64) ([]model.Comment, error) {
	return s.commentRows(ctx,
		`select c.id, c.item_id, c.account_id, c.content, c.created_at, c.updated_at
		 from comments c join items i on i.id=c.item_id
		 where i.board_id in (select board_id from board_members where account_id=$1)
		 order by c.id`, accountID)
}

func (s *Store) CommentsByItem(ctx context.Context, itemID int64) ([]model.Comment, error) {
	return s.commentRows(ctx,
		`select `+commentCols+` from comments where item_id=$1 order by id`, itemID)
}

func (s *Store) GetComment(ctx context.Context, id int64) (model.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx, `select `+commentCols+` from comments where id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Comment{}, model.ErrNotFound
	}
	return c, err
}

func (s *Store) AddComment(ctx context.Context, itemID, accountID int64, content string) (model.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx,
		`insert into comments(item_id, account_id, content) values($1,$2,$3) returning `+commentCols,
		itemID, accountID, content))
	return c, err
}

func (s *Store) UpdateComment(ctx context.Context, id int64, content string) (model.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx,
		`update comments set content=$1, updated_at=now() where id=$2 returning `+commentCols, content, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Comment{}, model.ErrNotFound
	}
	return c, err
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from comments where id=$1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
