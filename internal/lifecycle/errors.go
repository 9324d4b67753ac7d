package lifecycle

import "errors"

var (
	ErrNotFound               = errors.New("quest not found")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrMissingReason          = errors.New("a reason is required for this status change")
	ErrInvalidState           = errors.New("quest is not in a deletable state")
	ErrHasActiveReferences    = errors.New("quest has active signups")
	ErrPersistenceFailure     = errors.New("failed to persist quest")
	ErrConcurrentModification = errors.New("quest was modified concurrently")
	ErrUnknownReviewAction    = errors.New("unknown review action")
)
