package main

import (
	"net/http"
	"strings"

	"kanbanlite/model"
)

func (a *api) handleListBoards(w http.ResponseWriter, r *http.Request) {
	acc, err := a.currentAccount(r)
	if err != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	boards, err := a.store.BoardsForAccount(r.Context(), acc.ID)
	if err != nil {
		a.writeModelError(w, "list boards", err)
		return
	}
	writeJSON(w, 200, boards)
}

func (a *api) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	acc, err := a.currentAccount(r)
	if err != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := readJSON(w, r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	b, err := a.store.CreateBoard(r.Context(), acc.ID, strings.TrimSpace(req.Name), req.Color)
	if err != nil {
		a.writeModelError(w, "create board", err)
		return
	}
	writeJSON(w, 201, b)
	a.bus.Publish(Event{Type: "board.created", Entity: "board", BoardID: b.ID, AccountID: acc.ID, Payload: b})
}

func (a *api) handleGetBoard(w http.ResponseWriter, r *http.Request) {
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
	b, err := a.store.GetBoard(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "get board", err)
		return
	}
	writeJSON(w, 200, b)
}

func (a *api) handleUpdateBoard(w http.ResponseWriter, r *http.Request) {
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
	var req struct {
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	current, err := a.store.GetBoard(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "get board", err)
		return
	}
	// only an actual color change is owner-only; a client echoing the
	// current color back is still doing a plain rename
	ownerOnly := req.Color != nil && *req.Color != current.Color
	if err := a.store.requireMember(r.Context(), id, acc.ID, ownerOnly); err != nil {
		a.writeModelError(w, "board access", err)
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, 400, "name cannot be empty")
			return
		}
		req.Name = &name
	}
	b, err := a.store.UpdateBoard(r.Context(), id, req.Name, req.Color)
	if err != nil {
		a.writeModelError(w, "update board", err)
		return
	}
	writeJSON(w, 200, b)
	a.bus.Publish(Event{Type: "board.updated", Entity: "board", BoardID: id, AccountID: acc.ID, Payload: b})
}

func (a *api) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
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
	if err := a.store.requireMember(r.Context(), id, acc.ID, true); err != nil {
		a.writeModelError(w, "board access", err)
		return
	}
	if err := a.store.DeleteBoard(r.Context(), id); err != nil {
		a.writeModelError(w, "delete board", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
	a.bus.Publish(Event{Type: "board.deleted", Entity: "board", BoardID: id, AccountID: acc.ID})
}

func (a *api) handleBoardEvents(w http.ResponseWriter, r *http.Request) {
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
	a.bus.ServeSSE(w, r, id)
}

// handleGetBoardFull returns the board with its columns and items in one
// response, for a cold board-page load.
func (a *api) handleGetBoardFull(w http.ResponseWriter, r *http.Request) {
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
	board, err := a.store.GetBoard(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "get board", err)
		return
	}
	columns, err := a.store.ColumnsByBoard(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "columns by board", err)
		return
	}
	items, err := a.store.ItemsByBoard(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "items by board", err)
		return
	}
	byColumn := map[int64][]model.Item{}
	for _, it := range items {
		byColumn[it.ColumnID] = append(byColumn[it.ColumnID], it)
	}
	writeJSON(w, 200, map[string]any{"board": board, "columns": columns, "items": byColumn})
}
