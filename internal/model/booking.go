package model

import "time"

// Booking is a finalized purchase created from a consumed hold.  It
// records the seat explicitly so cancellation can revert exactly the
// seat that was sold rather than guessing from availability flags.
// PriceCents is copied from the hold and never recomputed.
//
// Fields:
//  ID            – primary key identifier.
//  PNR           – unique six-character confirmation code.
//  FlightID      – flight the booking is for.
//  SeatID        – seat that was sold.
//  PassengerName – passenger on the booking.
//  PriceCents    – price captured at hold time.
//  PaymentRef    – reference issued by the (simulated) payment gateway.
//  CreatedAt     – creation timestamp.
type Booking struct {
	ID            uint64    // bookings.id
	PNR           string    // bookings.pnr
	FlightID      uint64    // bookings.flight_id
	SeatID        uint64    // bookings.seat_id
	PassengerName string    // bookings.passenger_name
	PriceCents    uint32    // bookings.price_cents
	PaymentRef    string    // bookings.payment_ref
	CreatedAt     time.Time // bookings.created_at
}
