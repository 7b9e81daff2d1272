package main

import (
	"net/http"
	"strings"
)

func (a *api) handleListAssignees(w http.ResponseWriter, r *http.Request) {
	acc, err := a.currentAccount(r)
	if err != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	assignees, err := a.store.AssigneesForAccount(r.Context(), acc.ID)
	if err != nil {
		a.writeModelError(w, "list assignees", err)
		return
	}
	writeJSON(w, 200, assignees)
}

func (a *api) handleAssigneesByBoard(w http.ResponseWriter, r *http.Request) {
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
	assignees, err := a.store.AssigneesByBoard(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "assignees by board", err)
		return
	}
	writeJSON(w, 200, assignees)
}

// handleCreateAssignee creates a free-text assignee, or links a board member
// when account_id is sent. Names dedupe case-insensitively per board, so
// creating "Alice" where "ALICE" exists returns the existing row.
func (a *api) handleCreateAssignee(w http.ResponseWriter, r *http.Request) {
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
	var req struct {
		Name      string `json:"name"`
		AccountID *int64 `json:"account_id"`
	}
	if err := readJSON(w, r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	if req.AccountID != nil {
		// a linked assignee must reference a member of this board
		if _, err := a.store.MemberRole(r.Context(), id, *req.AccountID); err != nil {
			a.writeModelError(w, "assignee member", err)
			return
		}
	}
	as, err := a.store.CreateAssignee(r.Context(), id, strings.TrimSpace(req.Name), req.AccountID)
	if err != nil {
		a.writeModelError(w, "create assignee", err)
		return
	}
	writeJSON(w, 201, as)
	a.bus.Publish(Event{Type: "assignee.created", Entity: "assignee", BoardID: id, EntityID: as.ID, AccountID: acc.ID, Payload: as})
}

func (a *api) handleDeleteAssignee(w http.ResponseWriter, r *http.Request) {
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
	as, err := a.store.GetAssignee(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "get assignee", err)
		return
	}
	if err := a.store.requireMember(r.Context(), as.BoardID, acc.ID, false); err != nil {
		a.writeModelError(w, "board access", err)
		return
	}
	if err := a.store.DeleteAssignee(r.Context(), id); err != nil {
		a.writeModelError(w, "delete assignee", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
	a.bus.Publish(Event{Type: "assignee.deleted", Entity: "assignee", BoardID: as.BoardID, EntityID: id, AccountID: acc.ID})
}
