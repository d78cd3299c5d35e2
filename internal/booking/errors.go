package booking

import "errors"

var (
	// ErrNotFound means the referenced reservation id does not exist.
	ErrNotFound = errors.New("reservation not found")

	// ErrInvalidState means the reservation's current status does not permit
	// the attempted operation.
	ErrInvalidState = errors.New("reservation status does not permit this operation")
)

// AcceptResult is the outcome of an acceptance attempt.
type AcceptResult int

const (
	// Accepted: the reservation was promoted to confirmed and every competing
	// overlapping request on the same day was cancelled.
	Accepted AcceptResult = iota

	// SlotTaken: a confirmed reservation already covers the window (or the
	// target was already resolved); the target ends cancelled or unchanged.
	SlotTaken
)

func (r AcceptResult) String() string {
	if r == Accepted {
		return "accepted"
	}
	return "slot-taken"
}
