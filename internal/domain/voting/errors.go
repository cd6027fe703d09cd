package voting

import "errors"

var (
	// ErrNotAuthorized is returned when the voter isn't on the election's roll
	ErrNotAuthorized = errors.New("voter not authorized for this election")

	// ErrElectionNotOpen is returned when the election isn't active or is
	// outside its time window
	ErrElectionNotOpen = errors.New("election is not open for voting")

	// ErrInvalidCandidate is returned when the candidate doesn't belong to
	// the election/position being voted
	ErrInvalidCandidate = errors.New("candidate does not match election and position")

	// ErrDuplicateVote is returned when the voter already voted for this
	// position. Expected rejection, never logged as an error.
	ErrDuplicateVote = errors.New("voter already voted for this position")

	// ErrDuplicateCandidate is returned when the (election, position, name)
	// triple already exists
	ErrDuplicateCandidate = errors.New("candidate already registered")

	// ErrBusy is returned when transient storage contention outlasted the
	// bounded retries; the caller should back off and retry
	ErrBusy = errors.New("transient contention, retry")

	ErrInternal = errors.New("internal voting error")
)
