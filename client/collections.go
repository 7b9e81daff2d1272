package client

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	"kanbanlite/model"
)

// Collections holds one collection per entity type, all backed by the same
// API session. Mutations on one collection refetch the collections whose
// rows the server changes as a side effect: item mutations log activities,
// deleting a column deletes its items, accepting an invitation adds a member
// and a board, and so on.
type Collections struct {
	Boards     *Collection[model.Board]
	Columns    *Collection[model.Column]
	Items      *Collection[model.Item]
	Comments   *Collection[model.Comment]
	Assignees  *Collection[model.Assignee]
	Members    *Collection[model.BoardMember]
	Activities *Collection[model.Activity]

	api *API
	log *slog.Logger
}

func idKey(id int64) string { return strconv.FormatInt(id, 10) }

func memberKey(m model.BoardMember) string {
	return strconv.FormatInt(m.BoardID, 10) + "-" + strconv.FormatInt(m.AccountID, 10)
}

func NewCollections(api *API, log *slog.Logger) *Collections {
	if log == nil {
		log = slog.Default()
	}
	c := &Collections{api: api, log: log}

	c.Boards = NewCollection(CollectionConfig[model.Board]{
		Name:  "boards",
		Key:   func(b model.Board) string { return idKey(b.ID) },
		Fetch: api.Boards,
		Insert: func(ctx context.Context, b model.Board) (model.Board, error) {
			return api.CreateBoard(ctx, b.Name, b.Color)
		},
		Update: func(ctx context.Context, b model.Board) (model.Board, error) {
			return api.UpdateBoard(ctx, b.ID, &b.Name, &b.Color)
		},
		Delete: func(ctx context.Context, b model.Board) error {
			return api.DeleteBoard(ctx, b.ID)
		},
	}, log)

	c.Columns = NewCollection(CollectionConfig[model.Column]{
		Name:  "columns",
		Key:   func(col model.Column) string { return idKey(col.ID) },
		Fetch: api.Columns,
		Insert: func(ctx context.Context, col model.Column) (model.Column, error) {
			return api.CreateColumn(ctx, col.BoardID, col.Name)
		},
		Update: func(ctx context.Context, col model.Column) (model.Column, error) {
			return api.UpdateColumn(ctx, col.ID, ColumnPatch{
				Name:       &col.Name,
				Color:      &col.Color,
				Order:      &col.Order,
				IsExpanded: &col.IsExpanded,
				Shortcut:   col.Shortcut,
			})
		},
		Delete: func(ctx context.Context, col model.Column) error {
			return api.DeleteColumn(ctx, col.ID)
		},
	}, log)

	c.Items = NewCollection(CollectionConfig[model.Item]{
		Name:  "items",
		Key:   func(it model.Item) string { return idKey(it.ID) },
		Fetch: api.Items,
		Insert: func(ctx context.Context, it model.Item) (model.Item, error) {
			return api.CreateItem(ctx, it.BoardID, it.ColumnID, it.Title, it.Content)
		},
		Update: func(ctx context.Context, it model.Item) (model.Item, error) {
			// the row carries the full desired state, so a nil content or
			// assignee means cleared, not untouched
			patch := ItemPatch{
				Title:    &it.Title,
				ColumnID: &it.ColumnID,
				Order:    &it.Order,
			}
			if it.Content != nil {
				patch.Content = it.Content
			} else {
				patch.ClearContent = true
			}
			if it.AssigneeID != nil {
				patch.AssigneeID = it.AssigneeID
			} else {
				patch.ClearAssignee = true
			}
			return api.UpdateItem(ctx, it.ID, patch)
		},
		Delete: func(ctx context.Context, it model.Item) error {
			return api.DeleteItem(ctx, it.ID)
		},
	}, log)

	c.Comments = NewCollection(CollectionConfig[model.Comment]{
		Name:  "comments",
		Key:   func(cm model.Comment) string { return idKey(cm.ID) },
		Fetch: api.Comments,
		Insert: func(ctx context.Context, cm model.Comment) (model.Comment, error) {
			return api.AddComment(ctx, cm.ItemID, cm.Content)
		},
		Update: func(ctx context.Context, cm model.Comment) (model.Comment, error) {
			return api.UpdateComment(ctx, cm.ID, cm.Content)
		},
		Delete: func(ctx context.Context, cm model.Comment) error {
			return api.DeleteComment(ctx, cm.ID)
		},
	}, log)

	c.Assignees = NewCollection(CollectionConfig[model.Assignee]{
		Name:  "assignees",
		Key:   func(as model.Assignee) string { return idKey(as.ID) },
		Fetch: api.Assignees,
		Insert: func(ctx context.Context, as model.Assignee) (model.Assignee, error) {
			return api.CreateAssignee(ctx, as.BoardID, as.Name, as.AccountID)
		},
		Delete: func(ctx context.Context, as model.Assignee) error {
			return api.DeleteAssignee(ctx, as.ID)
		},
	}, log)

	c.Members = NewCollection(CollectionConfig[model.BoardMember]{
		Name:  "members",
		Key:   memberKey,
		Fetch: api.Members,
		Delete: func(ctx context.Context, m model.BoardMember) error {
			return api.RemoveMember(ctx, m.BoardID, m.AccountID)
		},
	}, log)

	c.Activities = NewCollection(CollectionConfig[model.Activity]{
		Name:  "activities",
		Key:   func(act model.Activity) string { return idKey(act.ID) },
		Fetch: api.Activities,
	}, log)

	// Server-side cascades and derived rows.
	c.Boards.InvalidatesOn(OpInsert, c.Columns, c.Members) // default columns, owner membership
	c.Boards.InvalidatesOn(OpDelete, c.Columns, c.Items, c.Comments, c.Assignees, c.Members, c.Activities)
	c.Columns.InvalidatesOn(OpDelete, c.Items, c.Activities)
	c.Items.InvalidatesOn(OpInsert, c.Activities)
	c.Items.InvalidatesOn(OpUpdate, c.Activities)
	c.Items.InvalidatesOn(OpDelete, c.Comments, c.Activities)
	c.Comments.InvalidatesOn(OpInsert, c.Activities)
	c.Comments.InvalidatesOn(OpDelete, c.Activities)
	c.Assignees.InvalidatesOn(OpDelete, c.Items) // assignments on those items are cleared

	return c
}

func (c *Collections) all() []Refetcher {
	return []Refetcher{c.Boards, c.Columns, c.Items, c.Comments, c.Assignees, c.Members, c.Activities}
}

// RefetchAll pulls every collection fresh. Errors are joined so one failed
// fetch does not hide the others; failed collections stay stale.
func (c *Collections) RefetchAll(ctx context.Context) error {
	var firstErr error
	for _, col := range c.all() {
		if err := col.Refetch(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// AcceptInvitation accepts through the API and refetches everything the new
// membership makes visible.
func (c *Collections) AcceptInvitation(ctx context.Context, id int64, token string) error {
	if err := c.api.AcceptInvitation(ctx, id, token); err != nil {
		return err
	}
	return c.RefetchAll(ctx)
}

// BoardItems returns a live query over items on one board, ordered by column
// position with ties broken by id.
func (c *Collections) BoardItems(boardID int64) *LiveQuery[model.Item] {
	return NewLiveQuery(c.Items,
		func(it model.Item) bool { return it.BoardID == boardID },
		func(a, b model.Item) bool {
			if a.ColumnID != b.ColumnID {
				return a.ColumnID < b.ColumnID
			}
			if a.Order != b.Order {
				return a.Order < b.Order
			}
			return a.ID < b.ID
		})
}

// BoardColumns returns a live query over one board's columns in position
// order.
func (c *Collections) BoardColumns(boardID int64) *LiveQuery[model.Column] {
	return NewLiveQuery(c.Columns,
		func(col model.Column) bool { return col.BoardID == boardID },
		func(a, b model.Column) bool {
			if a.Order != b.Order {
				return a.Order < b.Order
			}
			return a.ID < b.ID
		})
}

// ItemComments returns a live query over one item's comments, oldest first.
func (c *Collections) ItemComments(itemID int64) *LiveQuery[model.Comment] {
	return NewLiveQuery(c.Comments,
		func(cm model.Comment) bool { return cm.ItemID == itemID },
		func(a, b model.Comment) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		})
}

// BoardActivities returns a live query over one board's feed, newest first.
func (c *Collections) BoardActivities(boardID int64) *LiveQuery[model.Activity] {
	return NewLiveQuery(c.Activities,
		func(act model.Activity) bool { return act.BoardID == boardID },
		func(a, b model.Activity) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		})
}

// SortedBoards returns the account's boards by name.
func (c *Collections) SortedBoards() []model.Board {
	boards := c.Boards.Rows()
	sort.Slice(boards, func(i, j int) bool {
		if boards[i].Name != boards[j].Name {
			return boards[i].Name < boards[j].Name
		}
		return boards[i].ID < boards[j].ID
	})
	return boards
}
