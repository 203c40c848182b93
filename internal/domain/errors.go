package domain

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrDayNotFound       = errors.New("day not found")
	ErrStageNotFound     = errors.New("stage not found")
	ErrActNotFound       = errors.New("act not found")
	ErrGroupNotFound     = errors.New("group not found")
	ErrSelectionNotFound = errors.New("selection not found")
	ErrInviteNotFound    = errors.New("invite not found or expired")
	ErrNotGroupMember    = errors.New("user is not a member of the group")
	ErrLineupMismatch    = errors.New("lineup references do not belong to the same event")

	ErrTokenMissing = errors.New("missing token")
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("expired token")
)
