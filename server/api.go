package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"kanbanlite/model"
)

type api struct {
	store *Store
	log   *slog.Logger
	bus   *EventBus
	cfg   *Config
	// rate limiting buckets per IP:key
	rlMu sync.Mutex
	rl   map[string]*rateBucket
}

func newAPI(store *Store, log *slog.Logger, cfg *Config) *api {
	return &api{store: store, log: log, bus: NewEventBus(), cfg: cfg, rl: map[string]*rateBucket{}}
}

type rateBucket struct {
	count   int
	resetAt time.Time
}

func (a *api) allow(ip, key string, max int, window time.Duration) bool {
	now := time.Now()
	rk := ip + ":" + key
	a.rlMu.Lock()
	defer a.rlMu.Unlock()
	b, ok := a.rl[rk]
	if !ok || now.After(b.resetAt) {
		b = &rateBucket{count: 0, resetAt: now.Add(window)}
		a.rl[rk] = b
	}
	if b.count >= max {
		return false
	}
	b.count++
	return true
}

func (a *api) withRateLimit(name string, max int, window time.Duration, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.allow(r.RemoteAddr, name, max, window) {
			writeError(w, 429, "too many requests")
			return
		}
		next(w, r)
	}
}

func parseID(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, r.Body)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// writeModelError maps the error taxonomy onto HTTP. Anything outside the
// taxonomy is a 500 and gets logged by the caller.
func (a *api) writeModelError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, 404, "not found")
	case errors.Is(err, model.ErrUnauthorized):
		writeError(w, 401, "unauthorized")
	case errors.Is(err, model.ErrForbidden):
		writeError(w, 403, "forbidden")
	case errors.Is(err, model.ErrValidation):
		writeError(w, 400, "invalid payload")
	case errors.Is(err, model.ErrEditWindowExpired):
		writeError(w, 422, "edit window expired")
	case errors.Is(err, model.ErrDuplicateInvitation):
		writeError(w, 409, "invitation already pending")
	case errors.Is(err, model.ErrInvitationExpired):
		writeError(w, 410, "invitation expired")
	default:
		a.log.Error(op, "err", err)
		writeError(w, 500, "internal error")
	}
}

// cookie/session helpers
func (a *api) sameSite() http.SameSite {
	switch strings.ToLower(a.cfg.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (a *api) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: a.sameSite(),
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
	})
}

func (a *api) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: a.sameSite(),
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func (a *api) currentAccount(r *http.Request) (*model.Account, error) {
	c, err := r.Cookie(a.cfg.SessionCookie)
	if err != nil || c.Value == "" {
		return nil, model.ErrUnauthorized
	}
	acc, err := a.store.AccountBySession(r.Context(), c.Value)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrUnauthorized
		}
		return nil, err
	}
	return &acc, nil
}

// requireAuth wraps a handler and enforces a valid session
func (a *api) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := a.currentAccount(r); err != nil {
			writeError(w, 401, "unauthorized")
			return
		}
		next(w, r)
	}
}

func withLogging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: 200}
		start := time.Now()
		next.ServeHTTP(sw, r)
		log.Info("http", "method", r.Method, "path", r.URL.Path, "status", sw.status, "dur_ms", time.Since(start).Milliseconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }

// Implement http.Flusher if underlying writer supports it (needed for SSE)
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (a *api) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", a.withRateLimit("auth", 20, time.Minute, a.handleRegister))
	mux.HandleFunc("POST /api/auth/login", a.withRateLimit("auth", 30, time.Minute, a.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", a.handleLogout)
	mux.HandleFunc("GET /api/auth/me", a.handleMe)

	mux.HandleFunc("GET /api/health", a.handleHealth)

	mux.HandleFunc("GET /api/boards", a.requireAuth(a.handleListBoards))
	mux.HandleFunc("POST /api/boards", a.requireAuth(a.handleCreateBoard))
	mux.HandleFunc("GET /api/boards/{id}", a.requireAuth(a.handleGetBoard))
	mux.HandleFunc("GET /api/boards/{id}/full", a.requireAuth(a.handleGetBoardFull))
	mux.HandleFunc("GET /api/boards/{id}/events", a.requireAuth(a.handleBoardEvents))
	mux.HandleFunc("PATCH /api/boards/{id}", a.requireAuth(a.handleUpdateBoard))
	mux.HandleFunc("DELETE /api/boards/{id}", a.requireAuth(a.handleDeleteBoard))

	// Account-wide listings back the client's shared per-entity caches.
	mux.HandleFunc("GET /api/columns", a.requireAuth(a.handleListColumns))
	mux.HandleFunc("GET /api/items", a.requireAuth(a.handleListItems))
	mux.HandleFunc("GET /api/comments", a.requireAuth(a.handleListComments))
	mux.HandleFunc("GET /api/assignees", a.requireAuth(a.handleListAssignees))
	mux.HandleFunc("GET /api/members", a.requireAuth(a.handleListMembers))
	mux.HandleFunc("GET /api/activities", a.requireAuth(a.handleListActivities))

	mux.HandleFunc("GET /api/boards/{id}/columns", a.requireAuth(a.handleColumnsByBoard))
	mux.HandleFunc("POST /api/boards/{id}/columns", a.requireAuth(a.handleCreateColumn))
	mux.HandleFunc("PATCH /api/columns/{id}", a.requireAuth(a.handleUpdateColumn))
	mux.HandleFunc("DELETE /api/columns/{id}", a.requireAuth(a.handleDeleteColumn))

	mux.HandleFunc("GET /api/boards/{id}/items", a.requireAuth(a.handleItemsByBoard))
	mux.HandleFunc("POST /api/boards/{id}/items", a.requireAuth(a.handleCreateItem))
	mux.HandleFunc("PATCH /api/items/{id}", a.requireAuth(a.handleUpdateItem))
	mux.HandleFunc("DELETE /api/items/{id}", a.requireAuth(a.handleDeleteItem))

	mux.HandleFunc("GET /api/items/{id}/comments", a.requireAuth(a.handleCommentsByItem))
	mux.HandleFunc("POST /api/items/{id}/comments", a.requireAuth(a.handleAddComment))
	mux.HandleFunc("PATCH /api/comments/{id}", a.requireAuth(a.handleUpdateComment))
	mux.HandleFunc("DELETE /api/comments/{id}", a.requireAuth(a.handleDeleteComment))

	mux.HandleFunc("GET /api/boards/{id}/assignees", a.requireAuth(a.handleAssigneesByBoard))
	mux.HandleFunc("POST /api/boards/{id}/assignees", a.requireAuth(a.handleCreateAssignee))
	mux.HandleFunc("DELETE /api/assignees/{id}", a.requireAuth(a.handleDeleteAssignee))

	mux.HandleFunc("GET /api/boards/{id}/members", a.requireAuth(a.handleMembersByBoard))
	mux.HandleFunc("DELETE /api/boards/{id}/members/{aid}", a.requireAuth(a.handleRemoveMember))

	mux.HandleFunc("GET /api/boards/{id}/invitations", a.requireAuth(a.handleInvitationsByBoard))
	mux.HandleFunc("POST /api/boards/{id}/invitations", a.requireAuth(a.handleCreateInvitation))
	mux.HandleFunc("GET /api/my/invitations", a.requireAuth(a.handleMyInvitations))
	mux.HandleFunc("POST /api/invitations/{id}/accept", a.requireAuth(a.handleAcceptInvitation))

	mux.HandleFunc("GET /api/boards/{id}/activities", a.requireAuth(a.handleActivitiesByBoard))
	mux.HandleFunc("GET /api/items/{id}/activities", a.requireAuth(a.handleActivitiesByItem))
}
