// Package service implements the reservation state machine that moves
// a seat through Available → Held → Booked (or back to Available).
// Every transition runs inside one scoped transaction: either the seat
// flip and the hold/booking write both commit, or neither does. The
// database-level uniqueness constraint on holds.seat_id settles any
// race two initiations manage to run into despite the availability
// check.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/flight-booking/internal/model"
	"github.com/iliyamo/flight-booking/internal/pricing"
	"github.com/iliyamo/flight-booking/internal/repository"
	"github.com/iliyamo/flight-booking/internal/utils"
)

// ErrSeatUnavailable is returned when a seat is already held or booked.
// Callers should offer the passenger another seat rather than retry.
var ErrSeatUnavailable = errors.New("seat is already held or booked")

// codeAttempts bounds regeneration when a generated hold code or PNR
// collides with an existing one.
const codeAttempts = 5

// TxRunner runs a function inside one database transaction with
// rollback on error. database.Runner is the production implementation.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// FlightStore is the slice of flight persistence the state machine and
// the offer search need. Implemented by repository.FlightRepo.
type FlightStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Flight, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Flight, error)
	SearchByRoute(ctx context.Context, originCode, destCode string, day time.Time) ([]repository.RouteRow, error)
}

// SeatStore is the inventory ledger. Implemented by repository.SeatRepo.
type SeatStore interface {
	GetByFlightAndNumberTx(ctx context.Context, tx *sql.Tx, flightID uint64, seatNumber string) (*model.Seat, error)
	SetAvailabilityTx(ctx context.Context, tx *sql.Tx, seatID uint64, available bool) error
	ClassInventory(ctx context.Context, flightID uint64, class string) (model.ClassInventory, error)
	ClassInventoryTx(ctx context.Context, tx *sql.Tx, flightID uint64, class string) (model.ClassInventory, error)
	ClassAvailability(ctx context.Context, flightID uint64) ([]model.ClassInventory, error)
}

// HoldStore persists pre-booking claims. Implemented by repository.HoldRepo.
type HoldStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, h *model.Hold) error
	ExistsForSeatTx(ctx context.Context, tx *sql.Tx, seatID uint64) (bool, error)
	GetByCodeTx(ctx context.Context, tx *sql.Tx, code string) (*model.Hold, error)
	DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error
	ListExpiredTx(ctx context.Context, tx *sql.Tx, now time.Time, limit int) ([]model.Hold, error)
}

// BookingStore persists finalized purchases. Implemented by
// repository.BookingRepo.
type BookingStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	GetByPNRTx(ctx context.Context, tx *sql.Tx, pnr string) (*model.Booking, error)
	DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error
	DetailByPNR(ctx context.Context, pnr string) (*repository.BookingDetail, error)
}

// BookingService orchestrates the hold → pay → finalize/release
// lifecycle for one seat at a time.
type BookingService struct {
	tx       TxRunner
	flights  FlightStore
	seats    SeatStore
	holds    HoldStore
	bookings BookingStore
	gateway  PaymentGateway
	holdTTL  time.Duration
	now      func() time.Time
}

// NewBookingService wires the state machine to its stores and the
// payment gateway. holdTTL controls when an unpaid hold becomes
// reclaimable by the expiry sweep.
func NewBookingService(tx TxRunner, flights FlightStore, seats SeatStore, holds HoldStore, bookings BookingStore, gateway PaymentGateway, holdTTL time.Duration) *BookingService {
	if tx == nil || flights == nil || seats == nil || holds == nil || bookings == nil || gateway == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{
		tx:       tx,
		flights:  flights,
		seats:    seats,
		holds:    holds,
		bookings: bookings,
		gateway:  gateway,
		holdTTL:  holdTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Initiate claims a seat for a passenger: it checks the seat is
// available and not referenced by a live hold, freezes the price from
// a fresh inventory read, then atomically flips the seat to
// unavailable and inserts the hold. Returns the hold with its frozen
// price.
//
// Errors: repository.ErrSeatNotFound / ErrFlightNotFound when the
// references do not exist; ErrSeatUnavailable when the seat is taken
// (including when a concurrent initiation wins the insert race).
func (s *BookingService) Initiate(ctx context.Context, flightID uint64, seatNumber, passengerName string) (*model.Hold, error) {
	var hold *model.Hold
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		seat, err := s.seats.GetByFlightAndNumberTx(ctx, tx, flightID, seatNumber)
		if err != nil {
			return err
		}
		if !seat.IsAvailable {
			return ErrSeatUnavailable
		}
		// The availability flag and the hold row are written by the
		// same transition, but a crashed process can leave the flag
		// flipped before its hold committed. Both checks are required.
		held, err := s.holds.ExistsForSeatTx(ctx, tx, seat.ID)
		if err != nil {
			return err
		}
		if held {
			return ErrSeatUnavailable
		}

		flight, err := s.flights.GetByIDTx(ctx, tx, flightID)
		if err != nil {
			return err
		}
		inv, err := s.seats.ClassInventoryTx(ctx, tx, flightID, seat.Class)
		if err != nil {
			return err
		}
		now := s.now()
		price, err := pricing.Calculate(flight.BasePriceCents, flight.DepartsAt, flight.DemandLevel, seat.Class, inv, now)
		if err != nil {
			return err
		}

		if err := s.seats.SetAvailabilityTx(ctx, tx, seat.ID, false); err != nil {
			return err
		}
		h := &model.Hold{
			FlightID:      flightID,
			SeatID:        seat.ID,
			PriceCents:    price,
			PassengerName: passengerName,
			ExpiresAt:     now.Add(s.holdTTL),
		}
		for attempt := 0; ; attempt++ {
			code, err := utils.NewHoldCode()
			if err != nil {
				return err
			}
			h.HoldCode = code
			err = s.holds.CreateTx(ctx, tx, h)
			if err == nil {
				break
			}
			if errors.Is(err, repository.ErrSeatHeld) {
				// lost the race: another transaction inserted a hold
				// for this seat between our check and our insert
				return ErrSeatUnavailable
			}
			if errors.Is(err, repository.ErrCodeTaken) && attempt < codeAttempts {
				continue
			}
			return err
		}
		hold = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hold, nil
}

// Complete finalizes or releases a hold depending on the payment
// outcome. On success it creates the booking with the hold's frozen
// price, never a recomputed one, and deletes the hold; the seat was
// already claimed at initiate time and is not touched. On a declined
// payment it reverts the seat, deletes the hold and commits that
// compensation before surfacing ErrPaymentDeclined, so the caller
// never has any cleanup to do. An expired hold is released the same
// way and reported as repository.ErrHoldNotFound.
func (s *BookingService) Complete(ctx context.Context, holdCode string) (*model.Booking, error) {
	var booking *model.Booking
	var outcome error
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		hold, err := s.holds.GetByCodeTx(ctx, tx, holdCode)
		if err != nil {
			return err
		}
		if !hold.ExpiresAt.After(s.now()) {
			// reclaim in place; the commit below must keep the release
			if err := s.releaseHoldTx(ctx, tx, hold); err != nil {
				return err
			}
			outcome = repository.ErrHoldNotFound
			return nil
		}

		ref, err := s.gateway.Charge(ctx, hold.PriceCents, hold.HoldCode)
		if errors.Is(err, ErrPaymentDeclined) {
			if err := s.releaseHoldTx(ctx, tx, hold); err != nil {
				return err
			}
			outcome = ErrPaymentDeclined
			return nil
		}
		if err != nil {
			return fmt.Errorf("payment gateway: %w", err)
		}

		b := &model.Booking{
			FlightID:      hold.FlightID,
			SeatID:        hold.SeatID,
			PassengerName: hold.PassengerName,
			PriceCents:    hold.PriceCents,
			PaymentRef:    ref,
		}
		for attempt := 0; ; attempt++ {
			pnr, err := utils.NewPNR()
			if err != nil {
				return err
			}
			b.PNR = pnr
			err = s.bookings.CreateTx(ctx, tx, b)
			if err == nil {
				break
			}
			if errors.Is(err, repository.ErrCodeTaken) && attempt < codeAttempts {
				continue
			}
			return err
		}
		if err := s.holds.DeleteTx(ctx, tx, hold.ID); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		return nil, outcome
	}
	return booking, nil
}

// Cancel reverts a finalized booking: the stored seat reference is
// flipped back to available and the booking row removed, atomically.
func (s *BookingService) Cancel(ctx context.Context, pnr string) error {
	return s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		booking, err := s.bookings.GetByPNRTx(ctx, tx, pnr)
		if err != nil {
			return err
		}
		if err := s.seats.SetAvailabilityTx(ctx, tx, booking.SeatID, true); err != nil {
			return err
		}
		return s.bookings.DeleteTx(ctx, tx, booking.ID)
	})
}

// Detail returns the passenger-facing view of a booking by PNR.
func (s *BookingService) Detail(ctx context.Context, pnr string) (*repository.BookingDetail, error) {
	return s.bookings.DetailByPNR(ctx, pnr)
}

// ReleaseExpired reclaims holds whose expiry has passed, returning
// their seats to the available pool. It is run periodically by the
// sweep worker started from main.
func (s *BookingService) ReleaseExpired(ctx context.Context) (int, error) {
	released := 0
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		expired, err := s.holds.ListExpiredTx(ctx, tx, s.now(), 100)
		if err != nil {
			return err
		}
		for i := range expired {
			if err := s.releaseHoldTx(ctx, tx, &expired[i]); err != nil {
				return err
			}
			released++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

// releaseHoldTx reverts the held seat and deletes the hold within the
// caller's transaction.
func (s *BookingService) releaseHoldTx(ctx context.Context, tx *sql.Tx, hold *model.Hold) error {
	if err := s.seats.SetAvailabilityTx(ctx, tx, hold.SeatID, true); err != nil {
		return err
	}
	return s.holds.DeleteTx(ctx, tx, hold.ID)
}
