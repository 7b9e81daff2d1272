package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentEditableBy(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := Comment{ID: 1, ItemID: 2, AccountID: 10, Content: "hi", CreatedAt: created}

	t.Run("author within window", func(t *testing.T) {
		assert.NoError(t, CommentEditableBy(c, 10, created.Add(14*time.Minute)))
	})

	t.Run("author at the boundary", func(t *testing.T) {
		assert.NoError(t, CommentEditableBy(c, 10, created.Add(CommentEditWindow)))
	})

	t.Run("author after window", func(t *testing.T) {
		err := CommentEditableBy(c, 10, created.Add(CommentEditWindow+time.Second))
		assert.ErrorIs(t, err, ErrEditWindowExpired)
	})

	t.Run("non-author inside window", func(t *testing.T) {
		err := CommentEditableBy(c, 11, created.Add(time.Minute))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("non-author after window still forbidden", func(t *testing.T) {
		err := CommentEditableBy(c, 11, created.Add(time.Hour))
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestInvitationAcceptableBy(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	inv := BoardInvitation{
		ID:        1,
		BoardID:   2,
		Email:     "Bob@Example.com",
		Role:      RoleEditor,
		Status:    InvitationPending,
		CreatedAt: created,
	}

	t.Run("pending and addressed to caller", func(t *testing.T) {
		assert.NoError(t, InvitationAcceptableBy(inv, "bob@example.com", created.Add(time.Hour)))
	})

	t.Run("email match is case-insensitive", func(t *testing.T) {
		assert.NoError(t, InvitationAcceptableBy(inv, "BOB@EXAMPLE.COM", created.Add(time.Hour)))
	})

	t.Run("wrong email", func(t *testing.T) {
		err := InvitationAcceptableBy(inv, "mallory@example.com", created.Add(time.Hour))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("expired after seven days", func(t *testing.T) {
		err := InvitationAcceptableBy(inv, "bob@example.com", created.Add(InvitationTTL+time.Minute))
		assert.ErrorIs(t, err, ErrInvitationExpired)
	})

	t.Run("already accepted", func(t *testing.T) {
		done := inv
		done.Status = InvitationAccepted
		err := InvitationAcceptableBy(done, "bob@example.com", created.Add(time.Hour))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestNormalizeAssigneeName(t *testing.T) {
	assert.Equal(t, "alice", NormalizeAssigneeName("  Alice "))
	assert.Equal(t, "bob smith", NormalizeAssigneeName("Bob Smith"))
}

func TestAssigneeRefKeys(t *testing.T) {
	m := MemberRef(7, 3, "Alice")
	v := VirtualRef(12, "QA rotation")

	require.Equal(t, AssigneeMember, m.Kind)
	require.Equal(t, AssigneeVirtual, v.Kind)
	assert.Equal(t, "member-7-3", m.Key())
	assert.Equal(t, "assignee-12", v.Key())
	assert.NotEqual(t, m.Key(), VirtualRef(7, "x").Key(), "member and virtual ids never collide")
}
