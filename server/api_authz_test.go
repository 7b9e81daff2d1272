package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanbanlite/client"
	"kanbanlite/model"
)

// stackedClient wires the real handlers over httptest to the typed client so
// authorization decisions are exercised end to end against a sqlmock store.
func stackedClient(t *testing.T) (*client.API, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cfg := &Config{}
	cfg.loadDefaults()
	a := newAPI(NewStore(db), slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
	mux := http.NewServeMux()
	a.routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return client.NewAPI(srv.URL, client.Session{Token: "tok", AccountID: 9, Email: "ed@example.com"}, srv.Client()), mock
}

// the auth middleware and the handler each resolve the session once
func expectSession(mock sqlmock.Sqlmock, times int) {
	for i := 0; i < times; i++ {
		mock.ExpectQuery(regexp.QuoteMeta(`from sessions s join accounts a`)).
			WithArgs("tok").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "is_active", "created_at"}).
				AddRow(int64(9), "ed@example.com", "Ed", true, time.Now()))
	}
}

func expectRole(mock sqlmock.Sqlmock, boardID int64, role string) {
	mock.ExpectQuery(regexp.QuoteMeta(`select role from board_members`)).
		WithArgs(boardID, int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow(role))
}

func columnRow(id, boardID int64, name, color string, pos int64, expanded bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "board_id", "name", "color", "position", "is_default", "is_expanded", "shortcut", "created_at"}).
		AddRow(id, boardID, name, color, pos, false, expanded, nil, time.Now())
}

func TestEditorColumnRenameAllowed(t *testing.T) {
	capi, mock := stackedClient(t)
	colls := client.NewCollections(capi, slog.New(slog.NewTextHandler(io.Discard, nil)))
	colls.Columns.Seed([]model.Column{{ID: 1, BoardID: 5, Name: "Old name", IsExpanded: true}})

	expectSession(mock, 2)
	mock.ExpectQuery(regexp.QuoteMeta(`from columns where id=$1`)).
		WithArgs(int64(1)).
		WillReturnRows(columnRow(1, 5, "Old name", "", 0, true))
	expectRole(mock, 5, "editor")
	mock.ExpectQuery(regexp.QuoteMeta(`update columns set name=$1, color=nullif($2,''), position=$3, is_expanded=$4 where id=$5`)).
		WithArgs("New name", "", int64(0), true, int64(1)).
		WillReturnRows(columnRow(1, 5, "New name", "", 0, true))

	_, err := colls.Columns.Update(context.Background(), "1", func(c model.Column) model.Column {
		c.Name = "New name"
		return c
	})
	require.NoError(t, err)
	got, ok := colls.Columns.Get("1")
	require.True(t, ok)
	assert.Equal(t, "New name", got.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEditorColumnColorChangeForbiddenAndRolledBack(t *testing.T) {
	capi, mock := stackedClient(t)
	colls := client.NewCollections(capi, slog.New(slog.NewTextHandler(io.Discard, nil)))
	colls.Columns.Seed([]model.Column{{ID: 1, BoardID: 5, Name: "Todo"}})

	expectSession(mock, 2)
	mock.ExpectQuery(regexp.QuoteMeta(`from columns where id=$1`)).
		WithArgs(int64(1)).
		WillReturnRows(columnRow(1, 5, "Todo", "", 0, false))
	expectRole(mock, 5, "editor")

	_, err := colls.Columns.Update(context.Background(), "1", func(c model.Column) model.Column {
		c.Color = "red"
		return c
	})
	assert.ErrorIs(t, err, model.ErrForbidden)

	got, ok := colls.Columns.Get("1")
	require.True(t, ok)
	assert.Empty(t, got.Color)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEditorBoardRenameAllowed(t *testing.T) {
	capi, mock := stackedClient(t)
	colls := client.NewCollections(capi, slog.New(slog.NewTextHandler(io.Discard, nil)))
	colls.Boards.Seed([]model.Board{{ID: 5, AccountID: 2, Name: "Old board"}})

	expectSession(mock, 2)
	mock.ExpectQuery(regexp.QuoteMeta(`select id, account_id, name`)).
		WithArgs(int64(5)).
		WillReturnRows(boardRow(5, 2, "Old board"))
	expectRole(mock, 5, "editor")
	mock.ExpectQuery(regexp.QuoteMeta(`update boards set name=coalesce($1,name)`)).
		WithArgs("New board", "", int64(5)).
		WillReturnRows(boardRow(5, 2, "New board"))

	_, err := colls.Boards.Update(context.Background(), "5", func(b model.Board) model.Board {
		b.Name = "New board"
		return b
	})
	require.NoError(t, err)
	got, ok := colls.Boards.Get("5")
	require.True(t, ok)
	assert.Equal(t, "New board", got.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
