package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

// pgUniqueViolation is the Postgres error code for a unique constraint.
const pgUniqueViolation = "23505"

func (a *api) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct{ Email, Password, Name string }
	if err := readJSON(w, r, &req); err != nil || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Password) == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, 400, "password too short")
		return
	}
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.log.Error("bcrypt", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	acc, err := a.store.CreateAccount(r.Context(), strings.TrimSpace(req.Email), string(hashBytes), strings.TrimSpace(req.Name))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			writeError(w, 409, "email already registered")
			return
		}
		a.log.Error("register", "err", err)
		writeError(w, 500, "cannot create account")
		return
	}
	token, exp, err := a.store.CreateSession(r.Context(), acc.ID, a.cfg.SessionTTL)
	if err != nil {
		a.log.Error("create session", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	a.setSessionCookie(w, token, exp)
	writeJSON(w, 201, map[string]any{"ok": true, "account": acc})
}

func (a *api) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct{ Email, Password string }
	if err := readJSON(w, r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	acc, err := a.store.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, 401, "invalid credentials")
		return
	}
	token, exp, err := a.store.CreateSession(r.Context(), acc.ID, a.cfg.SessionTTL)
	if err != nil {
		a.log.Error("create session", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	a.setSessionCookie(w, token, exp)
	writeJSON(w, 200, map[string]any{"ok": true, "account": acc})
}

func (a *api) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(a.cfg.SessionCookie); err == nil && c.Value != "" {
		_ = a.store.DeleteSession(r.Context(), c.Value)
	}
	a.clearSessionCookie(w)
	writeJSON(w, 200, map[string]any{"ok": true})
}

func (a *api) handleMe(w http.ResponseWriter, r *http.Request) {
	acc, err := a.currentAccount(r)
	if err != nil {
		// anonymous callers get account: null rather than a noisy 401
		writeJSON(w, 200, map[string]any{"account": nil})
		return
	}
	writeJSON(w, 200, map[string]any{"account": acc})
}
