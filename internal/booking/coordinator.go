package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/TaherAlradaei/studio-sub000/internal/availability"
	"github.com/TaherAlradaei/studio-sub000/internal/model"
	"github.com/TaherAlradaei/studio-sub000/internal/outbox"
	"github.com/TaherAlradaei/studio-sub000/internal/storage"
)

// acceptMaxAttempts bounds transaction restarts on retryable store conflicts.
const acceptMaxAttempts = 3

// Coordinator owns the reservation lifecycle: submission, quoting, the
// transactional acceptance protocol, and the administrative block/cancel
// operations. All durable state lives in the store; the coordinator holds no
// mutable state of its own, so a single instance serves concurrent requests.
type Coordinator struct {
	repo     ReservationStore
	events   EventSink
	schedule availability.Schedule
	logger   *slog.Logger
}

func NewCoordinator(repo ReservationStore, events EventSink, schedule availability.Schedule, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		repo:     repo,
		events:   events,
		schedule: schedule,
		logger:   logger,
	}
}

type SubmitInput struct {
	OwnerID       string
	DisplayName   string
	ContactPhone  string
	Date          string
	StartTime     string
	DurationHours float64
}

// Submit records a customer booking request as pending. No availability check
// runs here: several customers may request the same window, and contention is
// resolved when one of them is accepted.
func (c *Coordinator) Submit(ctx context.Context, in SubmitInput) (model.Reservation, error) {
	if in.OwnerID == "" {
		return model.Reservation{}, &model.ValidationError{Field: "owner_id", Msg: "required"}
	}
	slot, err := model.ParseSlot(in.Date, in.StartTime, in.DurationHours)
	if err != nil {
		return model.Reservation{}, err
	}

	res := model.Reservation{
		OwnerID:         in.OwnerID,
		DisplayName:     in.DisplayName,
		ContactPhone:    in.ContactPhone,
		Date:            slot.Date,
		StartMinutes:    slot.StartMinutes,
		DurationMinutes: slot.DurationMinutes,
		Status:          model.StatusPending,
	}
	return c.createWithEvent(ctx, res, outbox.EventReservationSubmitted)
}

// Quote sets price = hourlyRate x duration and moves the reservation to
// awaiting-confirmation. Re-quoting an already quoted or confirmed reservation
// is allowed (the admin edit path is permissive); quoting a cancelled or
// blocked one is not.
func (c *Coordinator) Quote(ctx context.Context, id string, hourlyRate float64) (model.Reservation, error) {
	if hourlyRate <= 0 {
		return model.Reservation{}, &model.ValidationError{Field: "hourly_rate", Msg: "must be positive"}
	}

	var out model.Reservation
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		res, err := c.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return mapLookupErr(err)
		}
		switch res.Status {
		case model.StatusPending, model.StatusAwaitingConfirmation, model.StatusConfirmed:
		default:
			return fmt.Errorf("quote %s reservation: %w", res.Status, ErrInvalidState)
		}

		price := hourlyRate * float64(res.DurationMinutes) / 60
		if err := c.repo.SetQuote(ctx, tx, id, price, model.StatusAwaitingConfirmation); err != nil {
			return err
		}
		res.Price = &price
		res.Status = model.StatusAwaitingConfirmation
		out = res
		return c.emit(ctx, tx, outbox.EventReservationQuoted, res)
	})
	return out, err
}

// Accept promotes a quoted reservation to confirmed, or reports SlotTaken if a
// confirmed reservation already covers the window. On success every other
// pending or quoted request overlapping the window on the same day is
// cancelled in the same transaction.
//
// The read-check-write sequence restarts from scratch on retryable store
// conflicts (serialization failure, deadlock, or the confirmed-overlap
// exclusion constraint firing for a concurrent winner).
func (c *Coordinator) Accept(ctx context.Context, id string) (AcceptResult, error) {
	var lastErr error
	for attempt := 1; attempt <= acceptMaxAttempts; attempt++ {
		result, err := c.acceptOnce(ctx, id)
		if err == nil {
			return result, nil
		}
		if !storage.IsRetryable(err) {
			return SlotTaken, err
		}
		lastErr = err
		c.logger.Warn("accept transaction conflicted; retrying",
			"reservation_id", id,
			"attempt", attempt,
			"err", err,
		)
	}
	return SlotTaken, fmt.Errorf("accept: retries exhausted: %w", lastErr)
}

func (c *Coordinator) acceptOnce(ctx context.Context, id string) (AcceptResult, error) {
	tx, err := c.repo.Begin(ctx)
	if err != nil {
		return SlotTaken, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	target, err := c.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			// Already resolved (deleted or never existed): nothing to do.
			return SlotTaken, nil
		}
		return SlotTaken, err
	}
	if target.Status != model.StatusAwaitingConfirmation {
		return SlotTaken, nil
	}

	sameDay, err := c.repo.ListDayForUpdate(ctx, tx, target.Date, []model.Status{
		model.StatusConfirmed,
		model.StatusBlocked,
		model.StatusPending,
		model.StatusAwaitingConfirmation,
	})
	if err != nil {
		return SlotTaken, err
	}

	decision := DecideAccept(target, sameDay)
	if !decision.Win {
		if err := c.repo.UpdateStatus(ctx, tx, target.ID, model.StatusCancelled); err != nil {
			return SlotTaken, err
		}
		target.Status = model.StatusCancelled
		if err := c.emit(ctx, tx, outbox.EventReservationCancelled, target); err != nil {
			return SlotTaken, err
		}
		if err := tx.Commit(ctx); err != nil {
			return SlotTaken, err
		}
		return SlotTaken, nil
	}

	if err := c.repo.UpdateStatus(ctx, tx, target.ID, model.StatusConfirmed); err != nil {
		return SlotTaken, err
	}
	target.Status = model.StatusConfirmed
	if err := c.emit(ctx, tx, outbox.EventReservationConfirmed, target); err != nil {
		return SlotTaken, err
	}

	byID := make(map[string]model.Reservation, len(sameDay))
	for _, r := range sameDay {
		byID[r.ID] = r
	}
	for _, loserID := range decision.LoserIDs {
		if err := c.repo.UpdateStatus(ctx, tx, loserID, model.StatusCancelled); err != nil {
			return SlotTaken, err
		}
		loser := byID[loserID]
		loser.Status = model.StatusCancelled
		if err := c.emit(ctx, tx, outbox.EventReservationCancelled, loser); err != nil {
			return SlotTaken, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return SlotTaken, err
	}
	return Accepted, nil
}

// Decline cancels a reservation unconditionally. Declining an
// already-cancelled reservation is a no-op, not an error.
func (c *Coordinator) Decline(ctx context.Context, id string) (model.Reservation, error) {
	return c.cancelWith(ctx, id, func(res model.Reservation) error {
		if res.Status == model.StatusBlocked {
			return fmt.Errorf("decline a block: %w", ErrInvalidState)
		}
		return nil
	})
}

// Cancel is the administrative cancel: any non-terminal reservation moves to
// cancelled. Blocks are removed via Unblock, not cancelled.
func (c *Coordinator) Cancel(ctx context.Context, id string) (model.Reservation, error) {
	return c.cancelWith(ctx, id, func(res model.Reservation) error {
		if res.Status == model.StatusBlocked {
			return fmt.Errorf("cancel a block: %w", ErrInvalidState)
		}
		return nil
	})
}

func (c *Coordinator) cancelWith(ctx context.Context, id string, check func(model.Reservation) error) (model.Reservation, error) {
	var out model.Reservation
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		res, err := c.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return mapLookupErr(err)
		}
		if err := check(res); err != nil {
			return err
		}
		if res.Status == model.StatusCancelled {
			out = res
			return nil
		}
		if err := c.repo.UpdateStatus(ctx, tx, id, model.StatusCancelled); err != nil {
			return err
		}
		res.Status = model.StatusCancelled
		out = res
		return c.emit(ctx, tx, outbox.EventReservationCancelled, res)
	})
	return out, err
}

// Block reserves a window administratively, bypassing the pending/quote flow.
// A zero duration defaults to one hour.
func (c *Coordinator) Block(ctx context.Context, date, startTime string, durationHours float64) (model.Reservation, error) {
	if durationHours == 0 {
		durationHours = 1
	}
	slot, err := model.ParseSlot(date, startTime, durationHours)
	if err != nil {
		return model.Reservation{}, err
	}

	res := model.Reservation{
		OwnerID:         model.BlockOwnerID,
		Date:            slot.Date,
		StartMinutes:    slot.StartMinutes,
		DurationMinutes: slot.DurationMinutes,
		Status:          model.StatusBlocked,
	}
	return c.createWithEvent(ctx, res, outbox.EventReservationBlocked)
}

// Unblock hard-deletes an admin block. Targets in any other status error with
// ErrInvalidState.
func (c *Coordinator) Unblock(ctx context.Context, id string) error {
	return c.inTx(ctx, func(tx pgx.Tx) error {
		res, err := c.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return mapLookupErr(err)
		}
		if res.Status != model.StatusBlocked {
			return fmt.Errorf("unblock %s reservation: %w", res.Status, ErrInvalidState)
		}
		return c.repo.Delete(ctx, tx, id)
	})
}

// AvailableSlots lists the grid start times still bookable on a date for the
// given duration. This is the advisory read path: it filters to confirmed and
// blocked reservations and never locks anything.
func (c *Coordinator) AvailableSlots(ctx context.Context, date string, durationHours float64, now time.Time) ([]string, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, err
	}
	duration, err := model.DurationToMinutes(durationHours)
	if err != nil {
		return nil, err
	}

	existing, err := c.repo.ListDay(ctx, day, []model.Status{model.StatusConfirmed, model.StatusBlocked})
	if err != nil {
		return nil, err
	}

	starts := availability.DaySlots(c.schedule, day, duration, now, existing)
	clocks := make([]string, 0, len(starts))
	for _, s := range starts {
		clocks = append(clocks, model.FormatClock(s))
	}
	return clocks, nil
}

// DayReservations returns all reservations on a date, for the admin calendar.
func (c *Coordinator) DayReservations(ctx context.Context, date string) ([]model.Reservation, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return c.repo.ListDay(ctx, day, []model.Status{
		model.StatusPending,
		model.StatusAwaitingConfirmation,
		model.StatusConfirmed,
		model.StatusCancelled,
		model.StatusBlocked,
	})
}

// Get loads a single reservation.
func (c *Coordinator) Get(ctx context.Context, id string) (model.Reservation, error) {
	res, err := c.repo.Get(ctx, id)
	if err != nil {
		return model.Reservation{}, mapLookupErr(err)
	}
	return res, nil
}

func (c *Coordinator) createWithEvent(ctx context.Context, res model.Reservation, eventType string) (model.Reservation, error) {
	var out model.Reservation
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		id, err := c.repo.Create(ctx, tx, &res)
		if err != nil {
			return err
		}
		res.ID = id
		out = res
		return c.emit(ctx, tx, eventType, res)
	})
	return out, err
}

func (c *Coordinator) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := c.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (c *Coordinator) emit(ctx context.Context, tx pgx.Tx, eventType string, res model.Reservation) error {
	evt, err := outbox.ReservationEvent(eventType, res)
	if err != nil {
		return err
	}
	return c.events.Insert(ctx, tx, evt)
}

func mapLookupErr(err error) error {
	if storage.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}
