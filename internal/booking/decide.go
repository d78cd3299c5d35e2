package booking

import (
	"github.com/TaherAlradaei/studio-sub000/internal/availability"
	"github.com/TaherAlradaei/studio-sub000/internal/model"
)

// AcceptDecision is the pure outcome of the acceptance check, computed from a
// consistent snapshot of the target's calendar day. The coordinator applies it
// inside the same transaction that produced the snapshot.
type AcceptDecision struct {
	Win bool

	// LoserIDs are the other pending/quoted reservations on the day whose
	// windows overlap the target; they are auto-cancelled when the target wins.
	LoserIDs []string
}

// DecideAccept resolves an acceptance attempt for target against the full set
// of same-day reservations (target may be included in sameDay; it is skipped).
//
// The target loses if any confirmed or blocked reservation overlaps its
// window. Otherwise it wins and every competing request overlapping the
// window loses.
func DecideAccept(target model.Reservation, sameDay []model.Reservation) AcceptDecision {
	window := availability.Interval{Start: target.StartMinutes, End: target.EndMinutes()}

	var losers []string
	for _, r := range sameDay {
		if r.ID == target.ID {
			continue
		}
		iv := availability.Interval{Start: r.StartMinutes, End: r.EndMinutes()}
		if !window.Overlaps(iv) {
			continue
		}
		switch r.Status {
		case model.StatusConfirmed, model.StatusBlocked:
			return AcceptDecision{Win: false}
		case model.StatusPending, model.StatusAwaitingConfirmation:
			losers = append(losers, r.ID)
		}
	}
	return AcceptDecision{Win: true, LoserIDs: losers}
}
