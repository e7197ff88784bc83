// Package repository: this file is the inventory ledger. Seat counts
// feed the scarcity pricing factor, so every count query reads the
// seats table directly, never a cached count. Availability is
// flipped only through SetAvailabilityTx inside a transaction owned by
// the reservation state machine.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/flight-booking/internal/model"
)

// SeatRepo provides methods to work with seats in the database.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

const seatCols = `id, flight_id, seat_number, class, is_available`

// GetByFlightAndNumber retrieves a seat by flight id and seat label.
func (r *SeatRepo) GetByFlightAndNumber(ctx context.Context, flightID uint64, seatNumber string) (*model.Seat, error) {
	const q = `SELECT ` + seatCols + ` FROM seats WHERE flight_id = ? AND seat_number = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, flightID, seatNumber).
		Scan(&s.ID, &s.FlightID, &s.SeatNumber, &s.Class, &s.IsAvailable)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetByFlightAndNumberTx is GetByFlightAndNumber within a transaction,
// locking the row (FOR UPDATE) so the availability check and the flip
// that follows act on the same committed state.
func (r *SeatRepo) GetByFlightAndNumberTx(ctx context.Context, tx *sql.Tx, flightID uint64, seatNumber string) (*model.Seat, error) {
	const q = `SELECT ` + seatCols + ` FROM seats WHERE flight_id = ? AND seat_number = ? FOR UPDATE`
	var s model.Seat
	err := tx.QueryRowContext(ctx, q, flightID, seatNumber).
		Scan(&s.ID, &s.FlightID, &s.SeatNumber, &s.Class, &s.IsAvailable)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// SetAvailabilityTx flips a seat's availability flag within the given
// transaction. Returns ErrSeatNotFound when the id does not exist.
func (r *SeatRepo) SetAvailabilityTx(ctx context.Context, tx *sql.Tx, seatID uint64, available bool) error {
	const q = `UPDATE seats SET is_available = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, available, seatID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is also 0 when the flag already holds the target
		// value; confirm existence before reporting not found.
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM seats WHERE id = ?`, seatID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSeatNotFound
			}
			return err
		}
	}
	return nil
}

// ClassInventory returns the total and available seat counts for one
// cabin class of a flight, read directly from the seats table.
func (r *SeatRepo) ClassInventory(ctx context.Context, flightID uint64, class string) (model.ClassInventory, error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(is_available), 0)
	           FROM seats WHERE flight_id = ? AND class = ?`
	inv := model.ClassInventory{Class: class}
	err := r.db.QueryRowContext(ctx, q, flightID, class).Scan(&inv.Total, &inv.Available)
	return inv, err
}

// ClassInventoryTx is ClassInventory within a transaction, used when the
// frozen hold price must be computed at the same isolation level as the
// seat flip.
func (r *SeatRepo) ClassInventoryTx(ctx context.Context, tx *sql.Tx, flightID uint64, class string) (model.ClassInventory, error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(is_available), 0)
	           FROM seats WHERE flight_id = ? AND class = ?`
	inv := model.ClassInventory{Class: class}
	err := tx.QueryRowContext(ctx, q, flightID, class).Scan(&inv.Total, &inv.Available)
	return inv, err
}

// ClassAvailability enumerates the cabin classes of a flight with their
// counts, ordered by class name. Classes with zero available seats are
// included; callers decide whether to offer them.
func (r *SeatRepo) ClassAvailability(ctx context.Context, flightID uint64) ([]model.ClassInventory, error) {
	const q = `SELECT class, COUNT(*), COALESCE(SUM(is_available), 0)
	           FROM seats WHERE flight_id = ?
	           GROUP BY class ORDER BY class`
	rows, err := r.db.QueryContext(ctx, q, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ClassInventory
	for rows.Next() {
		var inv model.ClassInventory
		if err := rows.Scan(&inv.Class, &inv.Total, &inv.Available); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByFlight retrieves all seats of a flight ordered by label, for
// the seat map in the flight detail response.
func (r *SeatRepo) ListByFlight(ctx context.Context, flightID uint64) ([]model.Seat, error) {
	const q = `SELECT ` + seatCols + ` FROM seats WHERE flight_id = ? ORDER BY seat_number`
	rows, err := r.db.QueryContext(ctx, q, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.FlightID, &s.SeatNumber, &s.Class, &s.IsAvailable); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
