package main

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pressly/goose/v3"

	"kanbanlite/model"
	"kanbanlite/server/migrations"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, ".")
}

// MemberRole returns the caller's role on a board, or model.ErrNotFound when
// the caller is not a member. Non-members learn nothing about the board.
func (s *Store) MemberRole(ctx context.Context, boardID, accountID int64) (model.Role, error) {
	var role model.Role
	err := s.db.QueryRowContext(ctx,
		`select role from board_members where board_id=$1 and account_id=$2`, boardID, accountID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrNotFound
	}
	return role, err
}

// requireMember checks the caller's membership on a board. When ownerOnly is
// set, an editor gets model.ErrForbidden.
func (s *Store) requireMember(ctx context.Context, boardID, accountID int64, ownerOnly bool) error {
	role, err := s.MemberRole(ctx, boardID, accountID)
	if err != nil {
		return err
	}
	if ownerOnly && role != model.RoleOwner {
		return model.ErrForbidden
	}
	return nil
}

func (s *Store) BoardIDByColumn(ctx context.Context, columnID int64) (int64, error) {
	var boardID int64
	err := s.db.QueryRowContext(ctx, `select board_id from columns where id=$1`, columnID).Scan(&boardID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrNotFound
	}
	return boardID, err
}

func (s *Store) BoardIDByItem(ctx context.Context, itemID int64) (int64, error) {
	var boardID int64
	err := s.db.QueryRowContext(ctx, `select board_id from items where id=$1`, itemID).Scan(&boardID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrNotFound
	}
	return boardID, err
}

func (s *Store) BoardIDByComment(ctx context.Context, commentID int64) (int64, error) {
	var boardID int64
	err := s.db.QueryRowContext(ctx,
		`select i.board_id from comments c join items i on i.id=c.item_id where c.id=$1`, commentID).Scan(&boardID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrNotFound
	}
	return boardID, err
}
