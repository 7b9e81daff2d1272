package model

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrValidation          = errors.New("invalid payload")
	ErrEditWindowExpired   = errors.New("edit window expired")
	ErrDuplicateInvitation = errors.New("invitation already pending")
	ErrInvitationExpired   = errors.New("invitation expired")
)
