// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking service to distinguish between different failure scenarios
// without parsing driver errors. For example, ErrSeatHeld signals that
// the uniqueness constraint on holds.seat_id rejected an insert because
// another hold won the race for the seat.
package repository

import (
	"errors"
	"strings"
)

// ErrFlightNotFound is returned when a flight lookup yields no rows.
var ErrFlightNotFound = errors.New("flight not found")

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// ErrAirportNotFound is returned when an airport code does not exist.
var ErrAirportNotFound = errors.New("airport not found")

// ErrHoldNotFound is returned when a hold code does not match a live hold.
var ErrHoldNotFound = errors.New("hold not found")

// ErrBookingNotFound is returned when a PNR does not match a booking.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSeatHeld is returned when inserting a hold collides with the unique
// constraint on holds.seat_id: a concurrent initiation already claimed
// the seat. Callers should surface this as a conflict, never overwrite.
var ErrSeatHeld = errors.New("seat already held")

// ErrCodeTaken is returned when a generated hold code or PNR collides
// with an existing one. Callers should generate a fresh code and retry.
var ErrCodeTaken = errors.New("code already taken")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (1062) on the named key. The key name distinguishes which unique
// constraint fired when a table carries more than one.
func isDuplicateKey(err error, key string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1062") && strings.Contains(msg, key)
}
