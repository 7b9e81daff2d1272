// Package client implements the board client: a typed HTTP API wrapper, one
// optimistic cache-backed collection per entity type, and live queries over
// them. Mutations patch the local cache first, then confirm against the
// server and roll back on failure.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"kanbanlite/model"
)

// Session identifies the calling account. It is passed explicitly into every
// construction call; nothing in this package reads ambient globals.
type Session struct {
	Token     string
	AccountID int64
	Email     string
}

// Doer lets tests stub the transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type API struct {
	baseURL    string
	http       Doer
	session    Session
	cookieName string
}

// Option tweaks API construction.
type Option func(*API)

// WithCookieName overrides the session cookie name for deployments that
// configure a non-default SESSION_COOKIE_NAME on the server.
func WithCookieName(name string) Option {
	return func(a *API) { a.cookieName = name }
}

func NewAPI(baseURL string, session Session, httpClient Doer, opts ...Option) *API {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	a := &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       httpClient,
		session:    session,
		cookieName: "kanbanlite_sess",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *API) Session() Session { return a.session }

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.session.Token != "" {
		req.AddCookie(&http.Cookie{Name: a.cookieName, Value: a.session.Token})
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError maps the server's error responses back onto the model
// sentinels so callers can errors.Is against them.
func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}
	var sentinel error
	switch resp.StatusCode {
	case 401:
		sentinel = model.ErrUnauthorized
	case 403:
		sentinel = model.ErrForbidden
	case 404:
		sentinel = model.ErrNotFound
	case 409:
		sentinel = model.ErrDuplicateInvitation
	case 410:
		sentinel = model.ErrInvitationExpired
	case 422:
		sentinel = model.ErrEditWindowExpired
	case 400:
		sentinel = model.ErrValidation
	default:
		return fmt.Errorf("server error %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

// Login authenticates and returns a ready Session taken from the response
// cookie.
func Login(ctx context.Context, baseURL, email, password string, httpClient Doer, opts ...Option) (Session, error) {
	a := NewAPI(baseURL, Session{}, httpClient, opts...)
	var out struct {
		Account model.Account `json:"account"`
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/auth/login",
		strings.NewReader(fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.http.Do(req)
	if err != nil {
		return Session{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Session{}, decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Session{}, err
	}
	sess := Session{AccountID: out.Account.ID, Email: out.Account.Email}
	for _, c := range resp.Cookies() {
		if c.Name == a.cookieName {
			sess.Token = c.Value
		}
	}
	return sess, nil
}

// Boards

func (a *API) Boards(ctx context.Context) ([]model.Board, error) {
	var out []model.Board
	err := a.do(ctx, http.MethodGet, "/api/boards", nil, &out)
	return out, err
}

func (a *API) CreateBoard(ctx context.Context, name, color string) (model.Board, error) {
	var out model.Board
	err := a.do(ctx, http.MethodPost, "/api/boards", map[string]any{"name": name, "color": color}, &out)
	return out, err
}

func (a *API) UpdateBoard(ctx context.Context, id int64, name, color *string) (model.Board, error) {
	body := map[string]any{}
	if name != nil {
		body["name"] = *name
	}
	if color != nil {
		body["color"] = *color
	}
	var out model.Board
	err := a.do(ctx, http.MethodPatch, fmt.Sprintf("/api/boards/%d", id), body, &out)
	return out, err
}

func (a *API) DeleteBoard(ctx context.Context, id int64) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/api/boards/%d", id), nil, nil)
}

// Columns

func (a *API) Columns(ctx context.Context) ([]model.Column, error) {
	var out []model.Column
	err := a.do(ctx, http.MethodGet, "/api/columns", nil, &out)
	return out, err
}

func (a *API) CreateColumn(ctx context.Context, boardID int64, name string) (model.Column, error) {
	var out model.Column
	err := a.do(ctx, http.MethodPost, fmt.Sprintf("/api/boards/%d/columns", boardID), map[string]any{"name": name}, &out)
	return out, err
}

// ColumnPatch mirrors the server's PATCH payload; nil fields stay unchanged.
type ColumnPatch struct {
	Name       *string `json:"name,omitempty"`
	Color      *string `json:"color,omitempty"`
	Order      *int64  `json:"order,omitempty"`
	IsExpanded *bool   `json:"is_expanded,omitempty"`
	Shortcut   *string `json:"shortcut,omitempty"`
}

func (a *API) UpdateColumn(ctx context.Context, id int64, p ColumnPatch) (model.Column, error) {
	var out model.Column
	err := a.do(ctx, http.MethodPatch, fmt.Sprintf("/api/columns/%d", id), p, &out)
	return out, err
}

func (a *API) DeleteColumn(ctx context.Context, id int64) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/api/columns/%d", id), nil, nil)
}

// Items

func (a *API) Items(ctx context.Context) ([]model.Item, error) {
	var out []model.Item
	err := a.do(ctx, http.MethodGet, "/api/items", nil, &out)
	return out, err
}

func (a *API) CreateItem(ctx context.Context, boardID, columnID int64, title string, content *string) (model.Item, error) {
	body := map[string]any{"column_id": columnID, "title": title}
	if content != nil {
		body["content"] = *content
	}
	var out model.Item
	err := a.do(ctx, http.MethodPost, fmt.Sprintf("/api/boards/%d/items", boardID), body, &out)
	return out, err
}

// ItemPatch mirrors the server's PATCH payload. ClearAssignee sends an
// explicit null and ClearContent an empty string, which the server turns
// into null; omitempty alone cannot express either.
type ItemPatch struct {
	Title         *string
	Content       *string
	ClearContent  bool
	ColumnID      *int64
	Order         *int64
	AssigneeID    *int64
	ClearAssignee bool
}

func (p ItemPatch) body() map[string]any {
	body := map[string]any{}
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.Content != nil {
		body["content"] = *p.Content
	} else if p.ClearContent {
		body["content"] = ""
	}
	if p.ColumnID != nil {
		body["column_id"] = *p.ColumnID
	}
	if p.Order != nil {
		body["order"] = *p.Order
	}
	if p.AssigneeID != nil {
		body["assignee_id"] = *p.AssigneeID
	} else if p.ClearAssignee {
		body["assignee_id"] = nil
	}
	return body
}

func (a *API) UpdateItem(ctx context.Context, id int64, p ItemPatch) (model.Item, error) {
	var out model.Item
	err := a.do(ctx, http.MethodPatch, fmt.Sprintf("/api/items/%d", id), p.body(), &out)
	return out, err
}

func (a *API) DeleteItem(ctx context.Context, id int64) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/api/items/%d", id), nil, nil)
}

// Comments

func (a *API) Comments(ctx context.Context) ([]model.Comment, error) {
	var out []model.Comment
	err := a.do(ctx, http.MethodGet, "/api/comments", nil, &out)
	return out, err
}

func (a *API) AddComment(ctx context.Context, itemID int64, content string) (model.Comment, error) {
	var out model.Comment
	err := a.do(ctx, http.MethodPost, fmt.Sprintf("/api/items/%d/comments", itemID), map[string]any{"content": content}, &out)
	return out, err
}

func (a *API) UpdateComment(ctx context.Context, id int64, content string) (model.Comment, error) {
	var out model.Comment
	err := a.do(ctx, http.MethodPatch, fmt.Sprintf("/api/comments/%d", id), map[string]any{"content": content}, &out)
	return out, err
}

func (a *API) DeleteComment(ctx context.Context, id int64) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/api/comments/%d", id), nil, nil)
}

// Assignees

func (a *API) Assignees(ctx context.Context) ([]model.Assignee, error) {
	var out []model.Assignee
	err := a.do(ctx, http.MethodGet, "/api/assignees", nil, &out)
	return out, err
}

func (a *API) CreateAssignee(ctx context.Context, boardID int64, name string, accountID *int64) (model.Assignee, error) {
	body := map[string]any{"name": name}
	if accountID != nil {
		body["account_id"] = *accountID
	}
	var out model.Assignee
	err := a.do(ctx, http.MethodPost, fmt.Sprintf("/api/boards/%d/assignees", boardID), body, &out)
	return out, err
}

func (a *API) DeleteAssignee(ctx context.Context, id int64) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/api/assignees/%d", id), nil, nil)
}

// Members and invitations

func (a *API) Members(ctx context.Context) ([]model.BoardMember, error) {
	var out []model.BoardMember
	err := a.do(ctx, http.MethodGet, "/api/members", nil, &out)
	return out, err
}

func (a *API) RemoveMember(ctx context.Context, boardID, accountID int64) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/api/boards/%d/members/%d", boardID, accountID), nil, nil)
}

func (a *API) CreateInvitation(ctx context.Context, boardID int64, email string, role model.Role) (model.BoardInvitation, string, error) {
	var out struct {
		Invitation model.BoardInvitation `json:"invitation"`
		Token      string                `json:"token"`
	}
	err := a.do(ctx, http.MethodPost, fmt.Sprintf("/api/boards/%d/invitations", boardID),
		map[string]any{"email": email, "role": role}, &out)
	return out.Invitation, out.Token, err
}

func (a *API) MyInvitations(ctx context.Context) ([]model.BoardInvitation, error) {
	var out []model.BoardInvitation
	err := a.do(ctx, http.MethodGet, "/api/my/invitations", nil, &out)
	return out, err
}

func (a *API) AcceptInvitation(ctx context.Context, id int64, token string) error {
	return a.do(ctx, http.MethodPost, fmt.Sprintf("/api/invitations/%d/accept", id), map[string]any{"token": token}, nil)
}

// Activities

func (a *API) Activities(ctx context.Context) ([]model.Activity, error) {
	var out []model.Activity
	err := a.do(ctx, http.MethodGet, "/api/activities", nil, &out)
	return out, err
}
