package booking

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/TaherAlradaei/studio-sub000/internal/model"
	"github.com/TaherAlradaei/studio-sub000/internal/outbox"
)

// ReservationStore is the slice of the storage layer the coordinator uses.
// *storage.ReservationRepository satisfies it.
type ReservationStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, tx pgx.Tx, res *model.Reservation) (string, error)
	Get(ctx context.Context, id string) (model.Reservation, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Reservation, error)
	ListDay(ctx context.Context, day time.Time, statuses []model.Status) ([]model.Reservation, error)
	ListDayForUpdate(ctx context.Context, tx pgx.Tx, day time.Time, statuses []model.Status) ([]model.Reservation, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status model.Status) error
	SetQuote(ctx context.Context, tx pgx.Tx, id string, price float64, status model.Status) error
	Delete(ctx context.Context, tx pgx.Tx, id string) error
}

// EventSink records outbox events inside the caller's transaction.
// *outbox.Repository satisfies it.
type EventSink interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}
