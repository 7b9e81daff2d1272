package model

import "time"

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
)

type Account struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Board struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BoardMember struct {
	BoardID   int64     `json:"board_id"`
	AccountID int64     `json:"account_id"`
	Role      Role      `json:"role"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

type BoardInvitation struct {
	ID        int64            `json:"id"`
	BoardID   int64            `json:"board_id"`
	Email     string           `json:"email"`
	Role      Role             `json:"role"`
	Status    InvitationStatus `json:"status"`
	InvitedBy int64            `json:"invited_by"`
	CreatedAt time.Time        `json:"created_at"`
}

type Column struct {
	ID         int64     `json:"id"`
	BoardID    int64     `json:"board_id"`
	Name       string    `json:"name"`
	Color      string    `json:"color,omitempty"`
	Order      int64     `json:"order"`
	IsDefault  bool      `json:"is_default"`
	IsExpanded bool      `json:"is_expanded"`
	Shortcut   *string   `json:"shortcut,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Item struct {
	ID           int64     `json:"id"`
	BoardID      int64     `json:"board_id"`
	ColumnID     int64     `json:"column_id"`
	Title        string    `json:"title"`
	Content      *string   `json:"content,omitempty"`
	Order        int64     `json:"order"`
	CreatedBy    *int64    `json:"created_by,omitempty"`
	AssigneeID   *int64    `json:"assignee_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

type Assignee struct {
	ID        int64     `json:"id"`
	BoardID   int64     `json:"board_id"`
	Name      string    `json:"name"`
	AccountID *int64    `json:"account_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	AccountID int64     `json:"account_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Activity types emitted by the server as mutation side effects.
const (
	ActivityItemCreated    = "item_created"
	ActivityItemUpdated    = "item_updated"
	ActivityItemMoved      = "item_moved"
	ActivityItemDeleted    = "item_deleted"
	ActivityItemAssigned   = "item_assigned"
	ActivityColumnDeleted  = "column_deleted"
	ActivityCommentAdded   = "comment_added"
	ActivityCommentDeleted = "comment_deleted"
	ActivityMemberJoined   = "member_joined"
)

type Activity struct {
	ID        int64     `json:"id"`
	BoardID   int64     `json:"board_id"`
	ItemID    *int64    `json:"item_id,omitempty"`
	AccountID *int64    `json:"account_id,omitempty"`
	Type      string    `json:"type"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
