package main

import "net/http"

func (a *api) handleListMembers(w http.ResponseWriter, r *http.Request) {
	acc, err := a.currentAccount(r)
	if err != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	members, err := a.store.MembersForAccount(r.Context(), acc.ID)
	if err != nil {
		a.writeModelError(w, "list members", err)
		return
	}
	writeJSON(w, 200, members)
}

func (a *api) handleMembersByBoard(w http.ResponseWriter, r *http.Request) {
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
	members, err := a.store.MembersByBoard(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "members by board", err)
		return
	}
	writeJSON(w, 200, members)
}

func (a *api) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	boardID, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	memberID, err := parseID(r.PathValue("aid"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	acc, errU := a.currentAccount(r)
	if errU != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	if err := a.store.requireMember(r.Context(), boardID, acc.ID, true); err != nil {
		a.writeModelError(w, "board access", err)
		return
	}
	if err := a.store.RemoveMember(r.Context(), boardID, memberID); err != nil {
		a.writeModelError(w, "remove member", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
	a.bus.Publish(Event{Type: "member.removed", Entity: "member", BoardID: boardID, EntityID: memberID, AccountID: acc.ID})
}
