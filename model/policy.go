package model

import (
	"strings"
	"time"
)

const (
	// CommentEditWindow is how long the author may edit or delete a comment.
	CommentEditWindow = 15 * time.Minute
	// InvitationTTL is how long an invitation stays acceptable.
	InvitationTTL = 7 * 24 * time.Hour
)

// CommentEditableBy reports whether accountID may still mutate the comment
// at the given instant. Authorship is checked before the time window so a
// non-author is always rejected as forbidden, regardless of elapsed time.
func CommentEditableBy(c Comment, accountID int64, now time.Time) error {
	if c.AccountID != accountID {
		return ErrForbidden
	}
	if now.Sub(c.CreatedAt) > CommentEditWindow {
		return ErrEditWindowExpired
	}
	return nil
}

// InvitationAcceptableBy reports whether an account with the given email may
// accept the invitation at the given instant.
func InvitationAcceptableBy(inv BoardInvitation, email string, now time.Time) error {
	if inv.Status != InvitationPending {
		return ErrNotFound
	}
	if now.Sub(inv.CreatedAt) > InvitationTTL {
		return ErrInvitationExpired
	}
	if !strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(inv.Email)) {
		return ErrForbidden
	}
	return nil
}

// NormalizeAssigneeName is the key used for per-board assignee dedup.
func NormalizeAssigneeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
