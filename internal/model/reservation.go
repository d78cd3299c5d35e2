package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending              Status = "pending"
	StatusAwaitingConfirmation Status = "awaiting-confirmation"
	StatusConfirmed            Status = "confirmed"
	StatusCancelled            Status = "cancelled"
	StatusBlocked              Status = "blocked"
)

// BlockOwnerID is the sentinel owner recorded on administrator-created blocks.
const BlockOwnerID = "admin-block"

type Reservation struct {
	ID              string
	OwnerID         string
	DisplayName     string
	ContactPhone    string
	Date            time.Time // calendar day at midnight UTC
	StartMinutes    int       // minutes since midnight
	DurationMinutes int
	Status          Status
	Price           *float64
	CreatedAt       time.Time
}

func (r Reservation) EndMinutes() int {
	return r.StartMinutes + r.DurationMinutes
}

func (r Reservation) StartClock() string {
	return FormatClock(r.StartMinutes)
}

func (r Reservation) DurationHours() float64 {
	return float64(r.DurationMinutes) / 60
}

func (s Status) String() string { return string(s) }

// FormatClock renders minutes-since-midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
