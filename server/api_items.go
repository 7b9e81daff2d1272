package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"kanbanlite/model"
)

func (a *api) handleListItems(w http.ResponseWriter, r *http.Request) {
	acc, err := a.currentAccount(r)
	if err != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	items, err := a.store.ItemsForAccount(r.Context(), acc.ID)
	if err != nil {
		a.writeModelError(w, "list items", err)
		return
	}
	writeJSON(w, 200, items)
}

func (a *api) handleItemsByBoard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	acc, errU := a.currentAccount(r)
	if errU != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	if err := a.store.requireMember(r.Context(), id, acc.ID, false); err != nil {
		a.writeModelError(w, "board access", err)
		return
	}
	items, err := a.store.ItemsByBoard(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "items by board", err)
		return
	}
	writeJSON(w, 200, items)
}

func (a *api) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	boardID, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	acc, errU := a.currentAccount(r)
	if errU != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	if err := a.store.requireMember(r.Context(), boardID, acc.ID, false); err != nil {
		a.writeModelError(w, "board access", err)
		return
	}
	var req struct {
		ColumnID int64   `json:"column_id"`
		Title    string  `json:"title"`
		Content  *string `json:"content"`
	}
	if err := readJSON(w, r, &req); err != nil || strings.TrimSpace(req.Title) == "" || req.ColumnID == 0 {
		writeError(w, 400, "invalid payload")
		return
	}
	// the column must belong to the target board
	colBoard, err := a.store.BoardIDByColumn(r.Context(), req.ColumnID)
	if err != nil || colBoard != boardID {
		writeError(w, 400, "column not on board")
		return
	}
	it, err := a.store.CreateItem(r.Context(), boardID, req.ColumnID, strings.TrimSpace(req.Title), req.Content, acc.ID)
	if err != nil {
		a.writeModelError(w, "create item", err)
		return
	}
	if err := a.store.LogActivities(r.Context(), []model.Activity{{
		BoardID:   boardID,
		ItemID:    &it.ID,
		AccountID: &acc.ID,
		Type:      model.ActivityItemCreated,
		Content:   "Created " + it.Title,
	}}); err != nil {
		a.log.Error("log item create", "err", err)
	}
	writeJSON(w, 201, it)
	a.bus.Publish(Event{Type: "item.created", Entity: "item", BoardID: boardID, EntityID: it.ID, AccountID: acc.ID, Payload: it})
}

func (a *api) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	acc, errU := a.currentAccount(r)
	if errU != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	prev, err := a.store.GetItem(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "get item", err)
		return
	}
	if err := a.store.requireMember(r.Context(), prev.BoardID, acc.ID, false); err != nil {
		a.writeModelError(w, "board access", err)
		return
	}
	var req struct {
		Title      *string          `json:"title"`
		Content    *string          `json:"content"`
		ColumnID   *int64           `json:"column_id"`
		Order      *int64           `json:"order"`
		AssigneeID *json.RawMessage `json:"assignee_id"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeError(w, 400, "title cannot be empty")
		return
	}
	if req.ColumnID != nil {
		colBoard, err := a.store.BoardIDByColumn(r.Context(), *req.ColumnID)
		if err != nil || colBoard != prev.BoardID {
			writeError(w, 400, "column not on board")
			return
		}
	}
	patch := ItemPatch{Title: req.Title, Content: req.Content, ColumnID: req.ColumnID, Order: req.Order}
	if req.AssigneeID != nil {
		// present in the payload: either an id or an explicit null to clear
		var v *int64
		if err := json.Unmarshal(*req.AssigneeID, &v); err != nil {
			writeError(w, 400, "invalid payload")
			return
		}
		if v == nil {
			patch.AssigneeID = &sql.NullInt64{}
		} else {
			if _, err := a.store.GetAssignee(r.Context(), *v); err != nil {
				a.writeModelError(w, "get assignee", err)
				return
			}
			patch.AssigneeID = &sql.NullInt64{Int64: *v, Valid: true}
		}
	}
	next, err := a.store.UpdateItem(r.Context(), id, patch)
	if err != nil {
		a.writeModelError(w, "update item", err)
		return
	}
	acts := itemActivities(prev, next, acc.ID, a.columnNameResolver(r), a.assigneeNameResolver(r))
	if err := a.store.LogActivities(r.Context(), acts); err != nil {
		a.log.Error("log item update", "err", err)
	}
	writeJSON(w, 200, next)
	a.bus.Publish(Event{Type: "item.updated", Entity: "item", BoardID: next.BoardID, EntityID: id, AccountID: acc.ID, Payload: next})
}

func (a *api) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	acc, errU := a.currentAccount(r)
	if errU != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	boardID, err := a.store.BoardIDByItem(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "item board", err)
		return
	}
	if err := a.store.requireMember(r.Context(), boardID, acc.ID, false); err != nil {
		a.writeModelError(w, "board access", err)
		return
	}
	it, err := a.store.DeleteItem(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "delete item", err)
		return
	}
	if err := a.store.LogActivities(r.Context(), []model.Activity{{
		BoardID:   boardID,
		ItemID:    &id,
		AccountID: &acc.ID,
		Type:      model.ActivityItemDeleted,
		Content:   "Deleted " + it.Title,
	}}); err != nil {
		a.log.Error("log item delete", "err", err)
	}
	writeJSON(w, 200, map[string]any{"ok": true})
	a.bus.Publish(Event{Type: "item.deleted", Entity: "item", BoardID: boardID, EntityID: id, AccountID: acc.ID})
}

// columnNameResolver looks up a column name for activity summaries. Unknown
// ids resolve to "Unknown" rather than failing the mutation.
func (a *api) columnNameResolver(r *http.Request) func(int64) string {
	return func(id int64) string {
		c, err := a.store.GetColumn(r.Context(), id)
		if err != nil {
			return "Unknown"
		}
		return c.Name
	}
}

func (a *api) assigneeNameResolver(r *http.Request) func(int64) string {
	return func(id int64) string {
		as, err := a.store.GetAssignee(r.Context(), id)
		if err != nil {
			return "Unknown"
		}
		return as.Name
	}
}
