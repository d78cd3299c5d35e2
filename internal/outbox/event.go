package outbox

import (
	"encoding/json"
	"time"

	"github.com/TaherAlradaei/studio-sub000/internal/model"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	EventReservationSubmitted = "booking.reservation.submitted.v1"
	EventReservationQuoted    = "booking.reservation.quoted.v1"
	EventReservationConfirmed = "booking.reservation.confirmed.v1"
	EventReservationCancelled = "booking.reservation.cancelled.v1"
	EventReservationBlocked   = "booking.reservation.blocked.v1"
)

// ReservationEvent builds the lifecycle event for a reservation snapshot.
func ReservationEvent(eventType string, res model.Reservation) (Event, error) {
	payload := map[string]any{
		"reservation_id":   res.ID,
		"owner_id":         res.OwnerID,
		"date":             res.Date.Format("2006-01-02"),
		"start_time":       res.StartClock(),
		"duration_minutes": res.DurationMinutes,
		"status":           res.Status.String(),
		"occurred_at":      time.Now().UTC().Format(time.RFC3339),
	}
	if res.Price != nil {
		payload["price"] = *res.Price
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "reservation",
		AggregateID:   res.ID,
		EventType:     eventType,
		Payload:       body,
	}, nil
}
