package client

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanbanlite/model"
)

func TestLiveQueryFilterAndSort(t *testing.T) {
	col := NewCollection(CollectionConfig[note]{
		Name: "notes",
		Key:  func(n note) string { return strconv.FormatInt(n.ID, 10) },
		Fetch: func(ctx context.Context) ([]note, error) {
			return nil, nil
		},
	}, nil)
	col.Seed([]note{
		{ID: 3, Text: "carrot"},
		{ID: 1, Text: "apple"},
		{ID: 2, Text: "banana"},
		{ID: 4, Text: "zz-skip"},
	})

	q := NewLiveQuery(col,
		func(n note) bool { return n.Text[0] != 'z' },
		func(a, b note) bool { return a.Text < b.Text })
	defer q.Close()

	got := q.Results()
	require.Len(t, got, 3)
	assert.Equal(t, "apple", got[0].Text)
	assert.Equal(t, "banana", got[1].Text)
	assert.Equal(t, "carrot", got[2].Text)
}

func TestLiveQueryRecomputesOnChange(t *testing.T) {
	b := newFakeBackend()
	col := newNoteCollection(b)
	q := NewLiveQuery(col, nil, func(a, b note) bool { return a.ID < b.ID })
	defer q.Close()

	assert.Empty(t, q.Results())

	_, err := col.Insert(context.Background(), note{Text: "first"})
	require.NoError(t, err)

	select {
	case <-q.Changed():
	case <-time.After(time.Second):
		t.Fatal("expected a change signal")
	}
	got := q.Results()
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Text)
}

func TestJoinQueryCombinesTwoCollections(t *testing.T) {
	left := NewCollection(CollectionConfig[note]{
		Name:  "left",
		Key:   func(n note) string { return strconv.FormatInt(n.ID, 10) },
		Fetch: func(ctx context.Context) ([]note, error) { return nil, nil },
	}, nil)
	right := NewCollection(CollectionConfig[note]{
		Name:  "right",
		Key:   func(n note) string { return strconv.FormatInt(n.ID, 10) },
		Fetch: func(ctx context.Context) ([]note, error) { return nil, nil },
	}, nil)

	q := NewJoinQuery(left, right, func(l, r []note) []int {
		return []int{len(l) + len(r)}
	})
	defer q.Close()

	left.Seed([]note{{ID: 1}})
	right.Seed([]note{{ID: 2}, {ID: 3}})

	select {
	case <-q.Changed():
	case <-time.After(time.Second):
		t.Fatal("expected a change signal from either side")
	}
	assert.Equal(t, []int{3}, q.Results())
}

func TestAssigneeOptionsDedupLinkedMembers(t *testing.T) {
	c, _ := newTestCollections(t)
	accountID := int64(7)
	c.Members.Seed([]model.BoardMember{
		{BoardID: 1, AccountID: accountID, Role: model.RoleOwner, Name: "Alice"},
		{BoardID: 1, AccountID: 8, Role: model.RoleEditor, Name: "Bob"},
		{BoardID: 2, AccountID: 9, Role: model.RoleOwner, Name: "Other board"},
	})
	c.Assignees.Seed([]model.Assignee{
		{ID: 20, BoardID: 1, Name: "Alice", AccountID: &accountID},
		{ID: 21, BoardID: 1, Name: "QA rotation"},
		{ID: 22, BoardID: 2, Name: "Elsewhere"},
	})

	q := c.AssigneeOptions(1)
	defer q.Close()
	opts := q.Results()
	require.Len(t, opts, 3, "linked member appears once, other board excluded")

	assert.Equal(t, "Alice", opts[0].Name)
	assert.Equal(t, model.AssigneeMember, opts[0].Ref.Kind)
	assert.Equal(t, int64(20), opts[0].AssigneeID, "member carries its linked assignee row")

	assert.Equal(t, "Bob", opts[1].Name)
	assert.Zero(t, opts[1].AssigneeID)

	assert.Equal(t, "QA rotation", opts[2].Name)
	assert.Equal(t, model.AssigneeVirtual, opts[2].Ref.Kind)
}

func TestAssigneeName(t *testing.T) {
	c, _ := newTestCollections(t)
	c.Assignees.Seed([]model.Assignee{{ID: 20, BoardID: 1, Name: "Alice"}})
	assert.Equal(t, "Alice", c.AssigneeName(20))
	assert.Equal(t, "Unknown", c.AssigneeName(404))
}
