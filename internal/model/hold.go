package model

import "time"

// Hold is a temporary, exclusive claim on exactly one seat while the
// passenger completes payment.  The price is computed once at
// creation and frozen; completing the booking never reprices.  A
// unique constraint on holds.seat_id guarantees at most one live
// hold per seat, which makes the database the final arbiter when two
// initiations race.
//
// A hold is terminal-lived: it is deleted exactly once, either by
// successful finalization (converted into a Booking) or by release
// (declined payment or expiry sweep), which reverts the seat.
//
// Fields:
//  ID            – primary key identifier.
//  HoldCode      – opaque code returned to the client ("PB" + digits).
//  FlightID      – flight the held seat belongs to.
//  SeatID        – seat being held (unique among live holds).
//  PriceCents    – price frozen at hold creation.
//  PassengerName – passenger the hold was taken for.
//  ExpiresAt     – when the hold becomes reclaimable by the sweep.
//  CreatedAt     – creation timestamp.
type Hold struct {
	ID            uint64    // holds.id
	HoldCode      string    // holds.hold_code
	FlightID      uint64    // holds.flight_id
	SeatID        uint64    // holds.seat_id
	PriceCents    uint32    // holds.price_cents
	PassengerName string    // holds.passenger_name
	ExpiresAt     time.Time // holds.expires_at
	CreatedAt     time.Time // holds.created_at
}
