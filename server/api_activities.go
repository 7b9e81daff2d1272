package main

import "net/http"

func (a *api) handleListActivities(w http.ResponseWriter, r *http.Request) {
	acc, err := a.currentAccount(r)
	if err != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	acts, err := a.store.ActivitiesForAccount(r.Context(), acc.ID)
	if err != nil {
		a.writeModelError(w, "list activities", err)
		return
	}
	writeJSON(w, 200, acts)
}

func (a *api) handleActivitiesByBoard(w http.ResponseWriter, r *http.Request) {
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
	acts, err := a.store.ActivitiesByBoard(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "activities by board", err)
		return
	}
	writeJSON(w, 200, acts)
}

func (a *api) handleActivitiesByItem(w http.ResponseWriter, r *http.Request) {
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
	acts, err := a.store.ActivitiesByItem(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "activities by item", err)
		return
	}
	writeJSON(w, 200, acts)
}
