package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/flight-booking/internal/model"
)

// BookingRepo provides data access to the bookings table, the durable
// record of finalized purchases. The UNIQUE KEY uniq_booking_pnr
// enforces the confirmation-code namespace; collisions surface as
// ErrCodeTaken so the caller can regenerate and retry.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingCols = `id, pnr, flight_id, seat_id, passenger_name, price_cents, payment_ref, created_at`

// CreateTx inserts a booking within the provided transaction and
// populates the generated id and created_at. Returns ErrCodeTaken when
// the PNR collides with an existing booking.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (pnr, flight_id, seat_id, passenger_name, price_cents, payment_ref)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.PNR, b.FlightID, b.SeatID, b.PassengerName, b.PriceCents, b.PaymentRef)
	if err != nil {
		if isDuplicateKey(err, "uniq_booking_pnr") {
			return ErrCodeTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return tx.QueryRowContext(ctx, `SELECT created_at FROM bookings WHERE id = ?`, b.ID).
		Scan(&b.CreatedAt)
}

// GetByPNRTx retrieves a booking by confirmation code, locking the row
// so cancellation cannot race with itself. Returns ErrBookingNotFound
// when the PNR does not exist.
func (r *BookingRepo) GetByPNRTx(ctx context.Context, tx *sql.Tx, pnr string) (*model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE pnr = ? FOR UPDATE`
	var b model.Booking
	err := tx.QueryRowContext(ctx, q, pnr).Scan(
		&b.ID, &b.PNR, &b.FlightID, &b.SeatID,
		&b.PassengerName, &b.PriceCents, &b.PaymentRef, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// DeleteTx removes a booking within the provided transaction.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// BookingDetail is a booking joined with flight and route reference
// data for display to the passenger.
type BookingDetail struct {
	PNR           string    `json:"pnr"`
	FlightNumber  string    `json:"flight_number"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartsAt     time.Time `json:"departs_at"`
	SeatNumber    string    `json:"seat_number"`
	SeatClass     string    `json:"seat_class"`
	PassengerName string    `json:"passenger_name"`
	PriceCents    uint32    `json:"price_cents"`
	Price         float64   `json:"price"`
	BookedAt      time.Time `json:"booked_at"`
}

// DetailByPNR loads a booking with its flight, seat and route details.
// Origin and destination are rendered as "City (CODE)".
func (r *BookingRepo) DetailByPNR(ctx context.Context, pnr string) (*BookingDetail, error) {
	const q = `SELECT b.pnr, f.flight_number,
	                  CONCAT(o.city, ' (', o.code, ')'),
	                  CONCAT(d.city, ' (', d.code, ')'),
	                  f.departs_at, s.seat_number, s.class,
	                  b.passenger_name, b.price_cents, b.created_at
	           FROM bookings b
	           JOIN flights f  ON f.id = b.flight_id
	           JOIN airports o ON o.id = f.origin_id
	           JOIN airports d ON d.id = f.destination_id
	           JOIN seats s    ON s.id = b.seat_id
	           WHERE b.pnr = ?`
	var det BookingDetail
	err := r.db.QueryRowContext(ctx, q, pnr).Scan(
		&det.PNR, &det.FlightNumber, &det.Origin, &det.Destination,
		&det.DepartsAt, &det.SeatNumber, &det.SeatClass,
		&det.PassengerName, &det.PriceCents, &det.BookedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	det.Price = float64(det.PriceCents) / 100.0
	return &det, nil
}
