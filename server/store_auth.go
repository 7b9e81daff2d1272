package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kanbanlite/model"
)

const accountCols = `id, email, name, is_active, created_at`

func scanAccount(row interface{ Scan(...any) error }) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.IsActive, &a.CreatedAt)
	return a, err
}

func (s *Store) CreateAccount(ctx context.Context, email, passwordHash, name string) (model.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx,
		`insert into accounts(email, password_hash, name) values($1,$2,$3) returning `+accountCols,
		email, passwordHash, name))
	return a, err
}

func (s *Store) accountCredsByEmail(ctx context.Context, email string) (model.Account, string, error) {
	var a model.Account
	var hash string
	err := s.db.QueryRowContext(ctx,
		`select id, email, name, is_active, created_at, password_hash from accounts where lower(email)=lower($1)`, email).
		Scan(&a.ID, &a.Email, &a.Name, &a.IsActive, &a.CreatedAt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, "", model.ErrNotFound
	}
	return a, hash, err
}

// Authenticate verifies the password and returns the account if it matches
// and is active.
func (s *Store) Authenticate(ctx context.Context, email, password string) (model.Account, error) {
	a, hash, err := s.accountCredsByEmail(ctx, email)
	if err != nil {
		return model.Account{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return model.Account{}, model.ErrNotFound
	}
	if !a.IsActive {
		return model.Account{}, errors.New("account_inactive")
	}
	return a, nil
}

func (s *Store) CreateSession(ctx context.Context, accountID int64, ttl time.Duration) (string, time.Time, error) {
	// 32 random bytes, base64 URL encoded
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, err
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	expires := time.Now().Add(ttl)
	if _, err := s.db.ExecContext(ctx,
		`insert into sessions(account_id, token, expires_at) values($1,$2,$3)`, accountID, token, expires); err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

func (s *Store) AccountBySession(ctx context.Context, token string) (model.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx,
		`select a.id, a.email, a.name, a.is_active, a.created_at
		 from sessions s join accounts a on a.id=s.account_id
		 where s.token=$1 and s.expires_at > now()`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, model.ErrNotFound
	}
	return a, err
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `delete from sessions where token=$1`, token)
	return err
}
