package services

import "errors"

// Client-facing errors. The presentation layer matches substrings of these
// messages ("already in the queue", "not a participant", "already completed",
// "invalid match", "invalid session", "Unauthorized"), so keep them stable.
var (
	ErrNotFound            = errors.New("match not found")
	ErrAlreadyQueued       = errors.New("you are already in the queue")
	ErrInvalidState        = errors.New("invalid state")
	ErrNotPaired           = errors.New("invalid match: match is not yet paired")
	ErrAlreadyResolved     = errors.New("match already completed")
	ErrNotParticipant      = errors.New("caller is not a participant in this match")
	ErrInvalidParticipants = errors.New("invalid participants: winner and loser must be the match's players")
	ErrUnauthorized        = errors.New("Unauthorized: caller is not authenticated")
	ErrForbidden           = errors.New("forbidden: story mode requires purchased access")
	ErrAdminOnly           = errors.New("forbidden: admin role required")
	ErrNotConfigured       = errors.New("payment provider is not configured")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrInvalidSession      = errors.New("invalid session")
	ErrConfiguration       = errors.New("rank table configuration error")
	ErrInvalidArgument     = errors.New("invalid argument")
)
