package election

import "errors"

var (
	// ErrNotFound is returned when the election doesn't exist
	ErrNotFound = errors.New("election not found")

	// ErrNotOwner is returned when the caller doesn't own the election
	ErrNotOwner = errors.New("not the election organizer")

	// ErrNotDraft is returned when activation targets a non-draft election
	ErrNotDraft = errors.New("election is not in draft")

	// ErrNotActive is returned when cancellation targets a non-active election
	ErrNotActive = errors.New("election is not active")

	// ErrHasVotes is returned when cancelling an election that already has ballots
	ErrHasVotes = errors.New("election already has votes")

	// ErrInsufficientCredit is returned when no credit source can cover the voter limit
	ErrInsufficientCredit = errors.New("insufficient credit for voter limit")

	ErrInternal = errors.New("internal election error")
)
