package client

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanbanlite/model"
)

// recordingDoer captures the outgoing request and replies with a canned
// response.
type recordingDoer struct {
	req    *http.Request
	body   string
	status int
	reply  string
}

func (d *recordingDoer) Do(req *http.Request) (*http.Response, error) {
	d.req = req
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		d.body = string(data)
	}
	status := d.status
	if status == 0 {
		status = 200
	}
	reply := d.reply
	if reply == "" {
		reply = "{}"
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(reply)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func TestSessionCookieAttached(t *testing.T) {
	d := &recordingDoer{reply: "[]"}
	api := NewAPI("http://example.test", Session{Token: "tok-123"}, d)

	_, err := api.Boards(context.Background())
	require.NoError(t, err)

	cookie, err := d.req.Cookie("kanbanlite_sess")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", cookie.Value)
}

func TestCustomCookieName(t *testing.T) {
	d := &recordingDoer{reply: "[]"}
	api := NewAPI("http://example.test", Session{Token: "tok-123"}, d, WithCookieName("boards_sess"))

	_, err := api.Boards(context.Background())
	require.NoError(t, err)

	cookie, err := d.req.Cookie("boards_sess")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", cookie.Value)
}

func TestItemPatchClearAssigneeSendsExplicitNull(t *testing.T) {
	d := &recordingDoer{}
	api := NewAPI("http://example.test", Session{Token: "t"}, d)

	_, err := api.UpdateItem(context.Background(), 5, ItemPatch{ClearAssignee: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"assignee_id":null}`, d.body)
}

func TestItemPatchClearContentSendsEmptyString(t *testing.T) {
	d := &recordingDoer{}
	api := NewAPI("http://example.test", Session{Token: "t"}, d)

	// the server turns an empty content string into null
	_, err := api.UpdateItem(context.Background(), 5, ItemPatch{ClearContent: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":""}`, d.body)
}

func TestItemPatchOmitsUntouchedFields(t *testing.T) {
	d := &recordingDoer{}
	api := NewAPI("http://example.test", Session{Token: "t"}, d)

	title := "New title"
	_, err := api.UpdateItem(context.Background(), 5, ItemPatch{Title: &title})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"New title"}`, d.body)
}

func TestItemPatchAssign(t *testing.T) {
	d := &recordingDoer{}
	api := NewAPI("http://example.test", Session{Token: "t"}, d)

	id := int64(9)
	_, err := api.UpdateItem(context.Background(), 5, ItemPatch{AssigneeID: &id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"assignee_id":9}`, d.body)
}

func TestDecodeErrorSentinels(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{401, model.ErrUnauthorized},
		{403, model.ErrForbidden},
		{404, model.ErrNotFound},
		{409, model.ErrDuplicateInvitation},
		{410, model.ErrInvitationExpired},
		{422, model.ErrEditWindowExpired},
		{400, model.ErrValidation},
	}
	for _, tc := range cases {
		d := &recordingDoer{status: tc.status, reply: `{"ok":false,"error":"nope"}`}
		api := NewAPI("http://example.test", Session{Token: "t"}, d)
		_, err := api.Boards(context.Background())
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
		assert.Contains(t, err.Error(), "nope")
	}

	// 5xx does not pretend to be part of the taxonomy
	d := &recordingDoer{status: 500, reply: `{"ok":false,"error":"db down"}`}
	api := NewAPI("http://example.test", Session{Token: "t"}, d)
	_, err := api.Boards(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "db down")
}
