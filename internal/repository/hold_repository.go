package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/flight-booking/internal/model"
)

// HoldRepo provides data access to the holds table. A hold is the
// pre-booking claim on one seat; the UNIQUE KEY uniq_hold_seat on
// holds.seat_id is the final arbiter between racing initiations, and
// uniq_hold_code guards the code namespace. All methods mutate only
// within a caller-supplied transaction so a hold insert and its seat
// flip commit or roll back as one unit.
type HoldRepo struct {
	db *sql.DB
}

// NewHoldRepo returns a new HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

const holdCols = `id, hold_code, flight_id, seat_id, price_cents, passenger_name, expires_at, created_at`

// CreateTx inserts a hold within the provided transaction and populates
// the generated id and created_at on the record. It maps duplicate-key
// failures to sentinels: ErrSeatHeld when another live hold owns the
// seat, ErrCodeTaken when the generated code collides.
func (r *HoldRepo) CreateTx(ctx context.Context, tx *sql.Tx, h *model.Hold) error {
	const q = `INSERT INTO holds (hold_code, flight_id, seat_id, price_cents, passenger_name, expires_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		h.HoldCode, h.FlightID, h.SeatID, h.PriceCents, h.PassengerName, h.ExpiresAt.UTC())
	if err != nil {
		switch {
		case isDuplicateKey(err, "uniq_hold_seat"):
			return ErrSeatHeld
		case isDuplicateKey(err, "uniq_hold_code"):
			return ErrCodeTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return tx.QueryRowContext(ctx, `SELECT created_at FROM holds WHERE id = ?`, h.ID).
		Scan(&h.CreatedAt)
}

// ExistsForSeatTx reports whether any hold currently references the
// seat. Initiation checks this in addition to the availability flag to
// close the window where the flag was flipped but the hold row has not
// committed yet.
func (r *HoldRepo) ExistsForSeatTx(ctx context.Context, tx *sql.Tx, seatID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM holds WHERE seat_id = ?`, seatID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByCodeTx retrieves a hold by its code, locking the row so a
// concurrent completion of the same hold blocks until this transaction
// finishes. Returns ErrHoldNotFound when absent or already consumed.
func (r *HoldRepo) GetByCodeTx(ctx context.Context, tx *sql.Tx, code string) (*model.Hold, error) {
	const q = `SELECT ` + holdCols + ` FROM holds WHERE hold_code = ? FOR UPDATE`
	var h model.Hold
	err := tx.QueryRowContext(ctx, q, code).Scan(
		&h.ID, &h.HoldCode, &h.FlightID, &h.SeatID,
		&h.PriceCents, &h.PassengerName, &h.ExpiresAt, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHoldNotFound
		}
		return nil, err
	}
	return &h, nil
}

// DeleteTx removes a hold within the provided transaction. A hold is
// deleted exactly once, by finalization, payment failure or the expiry
// sweep, so a missing row is reported as ErrHoldNotFound.
func (r *HoldRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM holds WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrHoldNotFound
	}
	return nil
}

// ListExpiredTx returns up to limit holds whose expires_at has passed,
// locking them so the sweep and a concurrent completion cannot both
// consume the same hold.
func (r *HoldRepo) ListExpiredTx(ctx context.Context, tx *sql.Tx, now time.Time, limit int) ([]model.Hold, error) {
	const q = `SELECT ` + holdCols + ` FROM holds WHERE expires_at <= ? LIMIT ? FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holds []model.Hold
	for rows.Next() {
		var h model.Hold
		if err := rows.Scan(
			&h.ID, &h.HoldCode, &h.FlightID, &h.SeatID,
			&h.PriceCents, &h.PassengerName, &h.ExpiresAt, &h.CreatedAt); err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return holds, nil
}
