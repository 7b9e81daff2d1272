package main

import (
	"net/http"
	"strings"
	"time"

	"kanbanlite/model"
)

func (a *api) handleListComments(w http.ResponseWriter, r *http.Request) {
	acc, err := a.currentAccount(r)
	if err != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	comments, err := a.store.CommentsForAccount(r.Context(), acc.ID)
	if err != nil {
		a.writeModelError(w, "list comments", err)
		return
	}
	writeJSON(w, 200, comments)
}

func (a *api) handleCommentsByItem(w http.ResponseWriter, r *http.Request) {
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
	comments, err := a.store.CommentsByItem(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "comments by item", err)
		return
	}
	writeJSON(w, 200, comments)
}

func (a *api) handleAddComment(w http.ResponseWriter, r *http.Request) {
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
	var req struct {
		Content string `json:"content"`
	}
	if err := readJSON(w, r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	c, err := a.store.AddComment(r.Context(), id, acc.ID, req.Content)
	if err != nil {
		a.writeModelError(w, "add comment", err)
		return
	}
	if err := a.store.LogActivities(r.Context(), []model.Activity{{
		BoardID:   boardID,
		ItemID:    &id,
		AccountID: &acc.ID,
		Type:      model.ActivityCommentAdded,
		Content:   acc.Name + " commented",
	}}); err != nil {
		a.log.Error("log comment add", "err", err)
	}
	writeJSON(w, 201, c)
	a.bus.Publish(Event{Type: "comment.created", Entity: "comment", BoardID: boardID, EntityID: c.ID, AccountID: acc.ID, Payload: c})
}

func (a *api) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
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
	c, err := a.store.GetComment(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "get comment", err)
		return
	}
	boardID, err := a.store.BoardIDByComment(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "comment board", err)
		return
	}
	if err := a.store.requireMember(r.Context(), boardID, acc.ID, false); err != nil {
		a.writeModelError(w, "board access", err)
		return
	}
	// author-only, and only within the edit window; re-checked on the server
	// no matter what the client believes
	if err := model.CommentEditableBy(c, acc.ID, time.Now()); err != nil {
		a.writeModelError(w, "comment editable", err)
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := readJSON(w, r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	updated, err := a.store.UpdateComment(r.Context(), id, req.Content)
	if err != nil {
		a.writeModelError(w, "update comment", err)
		return
	}
	writeJSON(w, 200, updated)
	a.bus.Publish(Event{Type: "comment.updated", Entity: "comment", BoardID: boardID, EntityID: id, AccountID: acc.ID, Payload: updated})
}

func (a *api) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
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
	c, err := a.store.GetComment(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "get comment", err)
		return
	}
	boardID, err := a.store.BoardIDByComment(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "comment board", err)
		return
	}
	if err := a.store.requireMember(r.Context(), boardID, acc.ID, false); err != nil {
		a.writeModelError(w, "board access", err)
		return
	}
	if err := model.CommentEditableBy(c, acc.ID, time.Now()); err != nil {
		a.writeModelError(w, "comment editable", err)
		return
	}
	if err := a.store.DeleteComment(r.Context(), id); err != nil {
		a.writeModelError(w, "delete comment", err)
		return
	}
	if err := a.store.LogActivities(r.Context(), []model.Activity{{
		BoardID:   boardID,
		ItemID:    &c.ItemID,
		AccountID: &acc.ID,
		Type:      model.ActivityCommentDeleted,
		Content:   acc.Name + " deleted a comment",
	}}); err != nil {
		a.log.Error("log comment delete", "err", err)
	}
	writeJSON(w, 200, map[string]any{"ok": true})
	a.bus.Publish(Event{Type: "comment.deleted", Entity: "comment", BoardID: boardID, EntityID: id, AccountID: acc.ID})
}
