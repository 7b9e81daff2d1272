package main

import (
	"context"
	"database/sql"
	"errors"

	"kanbanlite/model"
)

func scanMember(row interface{ Scan(...any) error }) (model.BoardMember, error) {
	var m model.BoardMember
	err := row.Scan(&m.BoardID, &m.AccountID, &m.Role, &m.Email, &m.Name, &m.JoinedAt)
	return m, err
}

const memberQuery = `select m.board_id, m.account_id, m.role, a.email, a.name, m.joined_at
	from board_members m join accounts a on a.id=m.account_id`

func (s *Store) memberRows(ctx context.Context, query string, args ...any) ([]model.BoardMember, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BoardMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MembersForAccount returns the member rows of every board the account can
// see, so the client keeps one shared members cache.
func (s *Store) MembersForAccount(ctx context.Context, accountID int64) ([]model.BoardMember, error) {
	return s.memberRows(ctx, memberQuery+`
		where m.board_id in (select board_id from board_members where account_id=$1)
		order by m.board_id, m.joined_at`, accountID)
}

func (s *Store) MembersByBoard(ctx context.Context, boardID int64) ([]model.BoardMember, error) {
	return s.memberRows(ctx, memberQuery+` where m.board_id=$1 order by m.joined_at`, boardID)
}

// RemoveMember drops an editor from a board. The owner row cannot be
// removed; ownership moves only by deleting the board.
func (s *Store) RemoveMember(ctx context.Context, boardID, accountID int64) error {
	res, err := s.db.ExecContext(ctx,
		`delete from board_members where board_id=$1 and account_id=$2 and role<>$3`,
		boardID, accountID, model.RoleOwner)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Invitations

const invitationCols = `id, board_id, email, role, status, invited_by, created_at`

func scanInvitation(row interface{ Scan(...any) error }) (model.BoardInvitation, error) {
	var inv model.BoardInvitation
	err := row.Scan(&inv.ID, &inv.BoardID, &inv.Email, &inv.Role, &inv.Status, &inv.InvitedBy, &inv.CreatedAt)
	return inv, err
}

func (s *Store) CreateInvitation(ctx context.Context, boardID int64, email string, role model.Role, invitedBy int64) (model.BoardInvitation, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from board_invitations where board_id=$1 and lower(email)=lower($2) and status=$3)`,
		boardID, email, model.InvitationPending).Scan(&exists); err != nil {
		return model.BoardInvitation{}, err
	}
	if exists {
		return model.BoardInvitation{}, model.ErrDuplicateInvitation
	}
	inv, err := scanInvitation(s.db.QueryRowContext(ctx,
		`insert into board_invitations(board_id, email, role, invited_by) values($1,$2,$3,$4) returning `+invitationCols,
		boardID, email, role, invitedBy))
	return inv, err
}

func (s *Store) GetInvitation(ctx context.Context, id int64) (model.BoardInvitation, error) {
	inv, err := scanInvitation(s.db.QueryRowContext(ctx,
		`select `+invitationCols+` from board_invitations where id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.BoardInvitation{}, model.ErrNotFound
	}
	return inv, err
}

func (s *Store) invitationRows(ctx context.Context, query string, args ...any) ([]model.BoardInvitation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BoardInvitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) InvitationsByBoard(ctx context.Context, boardID int64) ([]model.BoardInvitation, error) {
	return s.invitationRows(ctx,
		`select `+invitationCols+` from board_invitations where board_id=$1 and status=$2 order by created_at, id`,
		boardID, model.InvitationPending)
}

func (s *Store) InvitationsForEmail(ctx context.Context, email string) ([]model.BoardInvitation, error) {
	return s.invitationRows(ctx,
		`select `+invitationCols+` from board_invitations where lower(email)=lower($1) and status=$2 order by created_at, id`,
		email, model.InvitationPending)
}

// AcceptInvitation flips the invitation to accepted, inserts the member row
// and logs member_joined, all in one transaction.
func (s *Store) AcceptInvitation(ctx context.Context, inv model.BoardInvitation, accountID int64, accountName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	res, err := tx.ExecContext(ctx,
		`update board_invitations set status=$1 where id=$2 and status=$3`,
		model.InvitationAccepted, inv.ID, model.InvitationPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`insert into board_members(board_id, account_id, role) values($1,$2,$3)
		 on conflict (board_id, account_id) do nothing`,
		inv.BoardID, accountID, inv.Role); err != nil {
		return err
	}
	if err := insertActivityTx(ctx, tx, model.Activity{
		BoardID:   inv.BoardID,
		AccountID: &accountID,
		Type:      model.ActivityMemberJoined,
		Content:   accountName + " joined the board",
	}); err != nil {
		return err
	}
	return tx.Commit()
}
