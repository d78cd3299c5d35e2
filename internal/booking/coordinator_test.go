package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/TaherAlradaei/studio-sub000/internal/availability"
	"github.com/TaherAlradaei/studio-sub000/internal/model"
	"github.com/TaherAlradaei/studio-sub000/internal/outbox"
)

// fakeTx satisfies pgx.Tx for the methods the coordinator touches; everything
// else panics via the embedded nil interface.
type fakeTx struct {
	pgx.Tx
	committed bool
}

func (t *fakeTx) Commit(context.Context) error   { t.committed = true; return nil }
func (t *fakeTx) Rollback(context.Context) error { return nil }

// fakeStore is an in-memory ReservationStore. listErrs is drained one error
// per ListDayForUpdate call before the listing succeeds, which lets tests
// inject transient store conflicts.
type fakeStore struct {
	rows      map[string]*model.Reservation
	nextID    int
	listErrs  []error
	listCalls int
}

func newFakeStore(rows ...model.Reservation) *fakeStore {
	s := &fakeStore{rows: make(map[string]*model.Reservation)}
	for i := range rows {
		r := rows[i]
		s.rows[r.ID] = &r
	}
	return s
}

func (s *fakeStore) Begin(context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }

func (s *fakeStore) Create(_ context.Context, _ pgx.Tx, res *model.Reservation) (string, error) {
	s.nextID++
	id := "res-" + strconv.Itoa(s.nextID)
	stored := *res
	stored.ID = id
	s.rows[id] = &stored
	return id, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (model.Reservation, error) {
	r, ok := s.rows[id]
	if !ok {
		return model.Reservation{}, pgx.ErrNoRows
	}
	return *r, nil
}

func (s *fakeStore) GetForUpdate(ctx context.Context, _ pgx.Tx, id string) (model.Reservation, error) {
	return s.Get(ctx, id)
}

func (s *fakeStore) ListDay(_ context.Context, day time.Time, statuses []model.Status) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range s.rows {
		if !r.Date.Equal(day) {
			continue
		}
		for _, st := range statuses {
			if r.Status == st {
				out = append(out, *r)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStore) ListDayForUpdate(ctx context.Context, _ pgx.Tx, day time.Time, statuses []model.Status) ([]model.Reservation, error) {
	s.listCalls++
	if len(s.listErrs) > 0 {
		err := s.listErrs[0]
		s.listErrs = s.listErrs[1:]
		return nil, err
	}
	return s.ListDay(ctx, day, statuses)
}

func (s *fakeStore) UpdateStatus(_ context.Context, _ pgx.Tx, id string, status model.Status) error {
	r, ok := s.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	r.Status = status
	return nil
}

func (s *fakeStore) SetQuote(_ context.Context, _ pgx.Tx, id string, price float64, status model.Status) error {
	r, ok := s.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	r.Price = &price
	r.Status = status
	return nil
}

func (s *fakeStore) Delete(_ context.Context, _ pgx.Tx, id string) error {
	if _, ok := s.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.rows, id)
	return nil
}

type fakeSink struct {
	eventTypes []string
}

func (s *fakeSink) Insert(_ context.Context, _ pgx.Tx, evt outbox.Event) error {
	s.eventTypes = append(s.eventTypes, evt.EventType)
	return nil
}

func newTestCoordinator(store *fakeStore) (*Coordinator, *fakeSink) {
	sink := &fakeSink{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCoordinator(store, sink, availability.DefaultSchedule(), logger), sink
}

func testDay() time.Time {
	return time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
}

func quoted(id string, start, duration int) model.Reservation {
	return model.Reservation{
		ID:              id,
		OwnerID:         "owner-" + id,
		Date:            testDay(),
		StartMinutes:    start,
		DurationMinutes: duration,
		Status:          model.StatusAwaitingConfirmation,
	}
}

func serializationFailure() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
}

func TestAcceptConfirmsWinnerAndCancelsCompetitors(t *testing.T) {
	competitor := quoted("b", 600, 60)
	competitor.Status = model.StatusPending
	unrelated := quoted("c", 900, 60)
	unrelated.Status = model.StatusPending
	store := newFakeStore(quoted("a", 600, 60), competitor, unrelated)
	coord, sink := newTestCoordinator(store)

	result, err := coord.Accept(context.Background(), "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != Accepted {
		t.Fatalf("expected Accepted, got %v", result)
	}
	if got := store.rows["a"].Status; got != model.StatusConfirmed {
		t.Fatalf("winner status = %s, want confirmed", got)
	}
	if got := store.rows["b"].Status; got != model.StatusCancelled {
		t.Fatalf("competitor status = %s, want cancelled", got)
	}
	if got := store.rows["c"].Status; got != model.StatusPending {
		t.Fatalf("non-overlapping request status = %s, want pending", got)
	}

	var confirmedEvents, cancelledEvents int
	for _, et := range sink.eventTypes {
		switch et {
		case outbox.EventReservationConfirmed:
			confirmedEvents++
		case outbox.EventReservationCancelled:
			cancelledEvents++
		}
	}
	if confirmedEvents != 1 || cancelledEvents != 1 {
		t.Fatalf("events = %v, want one confirmed and one cancelled", sink.eventTypes)
	}
}

func TestAcceptRetriesOnSerializationFailure(t *testing.T) {
	store := newFakeStore(quoted("a", 600, 60))
	store.listErrs = []error{serializationFailure()}
	coord, _ := newTestCoordinator(store)

	result, err := coord.Accept(context.Background(), "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != Accepted {
		t.Fatalf("expected Accepted after retry, got %v", result)
	}
	if store.listCalls != 2 {
		t.Fatalf("list calls = %d, want 2 (one conflict, one success)", store.listCalls)
	}
}

func TestAcceptGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := newFakeStore(quoted("a", 600, 60))
	store.listErrs = []error{serializationFailure(), serializationFailure(), serializationFailure()}
	coord, _ := newTestCoordinator(store)

	result, err := coord.Accept(context.Background(), "a")
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if result != SlotTaken {
		t.Fatalf("expected SlotTaken, got %v", result)
	}
	if store.listCalls != acceptMaxAttempts {
		t.Fatalf("list calls = %d, want %d", store.listCalls, acceptMaxAttempts)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "40001" {
		t.Fatalf("expected the last conflict wrapped in the error, got %v", err)
	}
}

func TestAcceptDoesNotRetryOtherStoreErrors(t *testing.T) {
	store := newFakeStore(quoted("a", 600, 60))
	boom := errors.New("connection reset")
	store.listErrs = []error{boom}
	coord, _ := newTestCoordinator(store)

	_, err := coord.Accept(context.Background(), "a")
	if !errors.Is(err, boom) {
		t.Fatalf("expected the store error surfaced unchanged, got %v", err)
	}
	if store.listCalls != 1 {
		t.Fatalf("list calls = %d, want 1 (no retry)", store.listCalls)
	}
}

func TestAcceptMissingReservationIsSlotTaken(t *testing.T) {
	store := newFakeStore()
	coord, _ := newTestCoordinator(store)

	result, err := coord.Accept(context.Background(), "gone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != SlotTaken {
		t.Fatalf("expected SlotTaken, got %v", result)
	}
}

func TestAcceptLosesToConfirmedOverlap(t *testing.T) {
	winner := quoted("w", 600, 60)
	winner.Status = model.StatusConfirmed
	store := newFakeStore(quoted("a", 630, 60), winner)
	coord, sink := newTestCoordinator(store)

	result, err := coord.Accept(context.Background(), "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != SlotTaken {
		t.Fatalf("expected SlotTaken, got %v", result)
	}
	if got := store.rows["a"].Status; got != model.StatusCancelled {
		t.Fatalf("loser status = %s, want cancelled", got)
	}
	if len(sink.eventTypes) != 1 || sink.eventTypes[0] != outbox.EventReservationCancelled {
		t.Fatalf("events = %v, want one cancelled", sink.eventTypes)
	}
}
