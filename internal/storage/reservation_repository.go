package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/TaherAlradaei/studio-sub000/internal/model"
	"github.com/TaherAlradaei/studio-sub000/libs/db"
)

// ReservationRepository persists reservations in Postgres. All mutations run
// inside caller-owned transactions so the acceptance protocol can bundle its
// read-check-write sequence atomically.
type ReservationRepository struct {
	pool *db.Pool
}

func NewReservationRepository(pool *db.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const reservationColumns = `id, owner_id, display_name, contact_phone, slot_date, start_minutes, duration_minutes, status, price, created_at`

func (r *ReservationRepository) Create(ctx context.Context, tx pgx.Tx, res *model.Reservation) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO reservations
			(owner_id, display_name, contact_phone, slot_date, start_minutes, duration_minutes, status, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, res.OwnerID, res.DisplayName, res.ContactPhone, res.Date, res.StartMinutes, res.DurationMinutes,
		res.Status, res.Price).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *ReservationRepository) Get(ctx context.Context, id string) (model.Reservation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = $1
	`, id)
	return scanReservation(row)
}

// GetForUpdate row-locks the target reservation for the duration of tx.
func (r *ReservationRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Reservation, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = $1
		FOR UPDATE
	`, id)
	return scanReservation(row)
}

// ListDay returns the reservations on a calendar day whose status is one of
// statuses, ordered by start time. Used by the advisory availability read path.
func (r *ReservationRepository) ListDay(ctx context.Context, day time.Time, statuses []model.Status) ([]model.Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE slot_date = $1 AND status = ANY($2)
		ORDER BY start_minutes ASC, id ASC
	`, day, statusStrings(statuses))
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// ListDayForUpdate locks and returns the day's reservations inside tx.
// Rows are locked in id order to keep competing acceptance transactions from
// acquiring locks in conflicting orders more often than necessary; genuine
// lock conflicts surface as retryable deadlock/serialization errors.
func (r *ReservationRepository) ListDayForUpdate(ctx context.Context, tx pgx.Tx, day time.Time, statuses []model.Status) ([]model.Reservation, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE slot_date = $1 AND status = ANY($2)
		ORDER BY id ASC
		FOR UPDATE
	`, day, statusStrings(statuses))
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status model.Status) error {
	tag, err := tx.Exec(ctx, `
		UPDATE reservations
		SET status = $2
		WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetQuote records the quoted price and moves the reservation to the given
// status in one statement.
func (r *ReservationRepository) SetQuote(ctx context.Context, tx pgx.Tx, id string, price float64, status model.Status) error {
	tag, err := tx.Exec(ctx, `
		UPDATE reservations
		SET price = $2, status = $3
		WHERE id = $1
	`, id, price, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete hard-removes a reservation (unblock path).
func (r *ReservationRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanReservation(row pgx.Row) (model.Reservation, error) {
	var res model.Reservation
	var price *float64
	err := row.Scan(
		&res.ID,
		&res.OwnerID,
		&res.DisplayName,
		&res.ContactPhone,
		&res.Date,
		&res.StartMinutes,
		&res.DurationMinutes,
		&res.Status,
		&price,
		&res.CreatedAt,
	)
	if err != nil {
		return model.Reservation{}, err
	}
	res.Price = price
	return res, nil
}

func collectReservations(rows pgx.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func statusStrings(statuses []model.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

// IsNotFound reports whether err means the target row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsConflict reports whether err is the exclusion-constraint violation raised
// when two confirmed reservations would overlap (SQLSTATE 23P01).
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

// IsRetryable reports whether err should restart the whole acceptance
// transaction: serialization failures, deadlocks, and the confirmed-overlap
// exclusion backstop (a concurrent accept won; the retry re-reads and loses
// cleanly).
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "23P01":
		return true
	}
	return false
}
