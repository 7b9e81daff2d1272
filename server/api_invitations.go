package main

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kanbanlite/model"
)

// inviteClaims bind a signed invite link to one invitation row and one
// recipient address.
type inviteClaims struct {
	jwt.RegisteredClaims
	InvitationID int64  `json:"invitation_id"`
	Email        string `json:"email"`
}

func (a *api) signInviteToken(inv model.BoardInvitation) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, inviteClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(inv.CreatedAt.Add(model.InvitationTTL)),
		},
		InvitationID: inv.ID,
		Email:        inv.Email,
	})
	return token.SignedString([]byte(a.cfg.InviteSecret))
}

func (a *api) parseInviteToken(tokenString string) (inviteClaims, error) {
	claims := inviteClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return []byte(a.cfg.InviteSecret), nil
	})
	if err != nil || !token.Valid {
		return inviteClaims{}, model.ErrInvitationExpired
	}
	return claims, nil
}

func (a *api) handleInvitationsByBoard(w http.ResponseWriter, r *http.Request) {
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
	invs, err := a.store.InvitationsByBoard(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "invitations by board", err)
		return
	}
	writeJSON(w, 200, invs)
}

func (a *api) handleMyInvitations(w http.ResponseWriter, r *http.Request) {
	acc, err := a.currentAccount(r)
	if err != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	invs, err := a.store.InvitationsForEmail(r.Context(), acc.Email)
	if err != nil {
		a.writeModelError(w, "my invitations", err)
		return
	}
	writeJSON(w, 200, invs)
}

func (a *api) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
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
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		writeError(w, 400, "invalid email")
		return
	}
	role := model.Role(req.Role)
	if role == "" {
		role = model.RoleEditor
	}
	if role != model.RoleEditor && role != model.RoleOwner {
		writeError(w, 400, "invalid role")
		return
	}
	inv, err := a.store.CreateInvitation(r.Context(), id, email, role, acc.ID)
	if err != nil {
		a.writeModelError(w, "create invitation", err)
		return
	}
	token, err := a.signInviteToken(inv)
	if err != nil {
		a.writeModelError(w, "sign invitation", err)
		return
	}
	// email delivery is out of scope; the invite link lands in the logs
	a.log.Info("invitation link (dev)", "email", inv.Email, "board_id", inv.BoardID, "token", token)
	writeJSON(w, 201, map[string]any{"invitation": inv, "token": token})
	a.bus.Publish(Event{Type: "invitation.created", Entity: "invitation", BoardID: id, EntityID: inv.ID, AccountID: acc.ID, Payload: inv})
}

func (a *api) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
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
		Token string `json:"token"`
	}
	if err := readJSON(w, r, &req); err != nil || req.Token == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	claims, err := a.parseInviteToken(req.Token)
	if err != nil || claims.InvitationID != id {
		a.writeModelError(w, "invite token", model.ErrInvitationExpired)
		return
	}
	inv, err := a.store.GetInvitation(r.Context(), id)
	if err != nil {
		a.writeModelError(w, "get invitation", err)
		return
	}
	// pending, within 7 days, and addressed to the caller's email
	if err := model.InvitationAcceptableBy(inv, acc.Email, time.Now()); err != nil {
		a.writeModelError(w, "invitation acceptable", err)
		return
	}
	if err := a.store.AcceptInvitation(r.Context(), inv, acc.ID, acc.Name); err != nil {
		a.writeModelError(w, "accept invitation", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "board_id": inv.BoardID})
	a.bus.Publish(Event{Type: "member.joined", Entity: "member", BoardID: inv.BoardID, AccountID: acc.ID})
}
