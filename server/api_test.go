package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanbanlite/model"
)

func testAPI(t *testing.T) *api {
	t.Helper()
	cfg := &Config{}
	cfg.loadDefaults()
	return newAPI(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
}

func TestWriteModelErrorMapping(t *testing.T) {
	a := testAPI(t)
	cases := []struct {
		err  error
		code int
	}{
		{model.ErrNotFound, 404},
		{model.ErrUnauthorized, 401},
		{model.ErrForbidden, 403},
		{model.ErrValidation, 400},
		{model.ErrEditWindowExpired, 422},
		{model.ErrDuplicateInvitation, 409},
		{model.ErrInvitationExpired, 410},
		{io.ErrUnexpectedEOF, 500},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		a.writeModelError(rec, "test", tc.err)
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)

		var body struct {
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.OK)
		assert.NotEmpty(t, body.Error)
	}
}

func TestInviteTokenRoundTrip(t *testing.T) {
	a := testAPI(t)
	inv := model.BoardInvitation{
		ID:        42,
		BoardID:   3,
		Email:     "bob@example.com",
		Role:      model.RoleEditor,
		Status:    model.InvitationPending,
		CreatedAt: time.Now(),
	}

	token, err := a.signInviteToken(inv)
	require.NoError(t, err)

	claims, err := a.parseInviteToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.InvitationID)
	assert.Equal(t, "bob@example.com", claims.Email)
}

func TestInviteTokenExpired(t *testing.T) {
	a := testAPI(t)
	inv := model.BoardInvitation{
		ID:        42,
		Email:     "bob@example.com",
		CreatedAt: time.Now().Add(-model.InvitationTTL - time.Hour),
	}

	token, err := a.signInviteToken(inv)
	require.NoError(t, err)

	_, err = a.parseInviteToken(token)
	assert.ErrorIs(t, err, model.ErrInvitationExpired)
}

func TestInviteTokenWrongSecret(t *testing.T) {
	a := testAPI(t)
	inv := model.BoardInvitation{ID: 42, Email: "bob@example.com", CreatedAt: time.Now()}
	token, err := a.signInviteToken(inv)
	require.NoError(t, err)

	other := testAPI(t)
	other.cfg.InviteSecret = "different-secret"
	_, err = other.parseInviteToken(token)
	assert.ErrorIs(t, err, model.ErrInvitationExpired)
}

func TestRateLimit(t *testing.T) {
	a := testAPI(t)
	hits := 0
	h := a.withRateLimit("auth", 3, time.Minute, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(200)
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h(rec, req)
		if i < 3 {
			assert.Equal(t, 200, rec.Code)
		} else {
			assert.Equal(t, 429, rec.Code)
		}
	}
	assert.Equal(t, 3, hits)

	// a different IP has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, 200, rec.Code)
}

func TestReadJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","bogus":1}`))
	var dst struct {
		Name string `json:"name"`
	}
	err := readJSON(httptest.NewRecorder(), req, &dst)
	assert.Error(t, err)
}
