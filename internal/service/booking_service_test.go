package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-booking/internal/model"
	"github.com/iliyamo/flight-booking/internal/repository"
)

// fakeTx runs the transaction function directly with a nil *sql.Tx;
// the store fakes below never touch the handle.
type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

// serialTx serializes transaction bodies with a mutex the way the
// database serializes them with row locks, so the fakes can back
// concurrent callers.
type serialTx struct{ mu sync.Mutex }

func (s *serialTx) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(nil)
}

type fakeFlights struct {
	flight *model.Flight
	err    error
}

func (f *fakeFlights) GetByID(ctx context.Context, id uint64) (*model.Flight, error) {
	return f.GetByIDTx(ctx, nil, id)
}

func (f *fakeFlights) GetByIDTx(_ context.Context, _ *sql.Tx, id uint64) (*model.Flight, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.flight == nil || f.flight.ID != id {
		return nil, repository.ErrFlightNotFound
	}
	cp := *f.flight
	return &cp, nil
}

func (f *fakeFlights) SearchByRoute(context.Context, string, string, time.Time) ([]repository.RouteRow, error) {
	return nil, nil
}

type fakeSeats struct {
	seats map[uint64]*model.Seat // keyed by seat id
	inv   model.ClassInventory

	setCalls []struct {
		seatID    uint64
		available bool
	}
}

func (f *fakeSeats) GetByFlightAndNumberTx(_ context.Context, _ *sql.Tx, flightID uint64, seatNumber string) (*model.Seat, error) {
	for _, s := range f.seats {
		if s.FlightID == flightID && s.SeatNumber == seatNumber {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrSeatNotFound
}

func (f *fakeSeats) SetAvailabilityTx(_ context.Context, _ *sql.Tx, seatID uint64, available bool) error {
	s, ok := f.seats[seatID]
	if !ok {
		return repository.ErrSeatNotFound
	}
	s.IsAvailable = available
	f.setCalls = append(f.setCalls, struct {
		seatID    uint64
		available bool
	}{seatID, available})
	return nil
}

func (f *fakeSeats) ClassInventory(ctx context.Context, flightID uint64, class string) (model.ClassInventory, error) {
	return f.ClassInventoryTx(ctx, nil, flightID, class)
}

func (f *fakeSeats) ClassInventoryTx(_ context.Context, _ *sql.Tx, _ uint64, _ string) (model.ClassInventory, error) {
	return f.inv, nil
}

func (f *fakeSeats) ClassAvailability(context.Context, uint64) ([]model.ClassInventory, error) {
	return []model.ClassInventory{f.inv}, nil
}

type fakeHolds struct {
	byCode   map[string]*model.Hold
	bySeat   map[uint64]*model.Hold
	nextID   uint64
	failCode int    // number of CreateTx calls to reject with ErrCodeTaken
	raceSeat uint64 // seat whose insert fails as if a concurrent hold won
}

func newFakeHolds() *fakeHolds {
	return &fakeHolds{byCode: map[string]*model.Hold{}, bySeat: map[uint64]*model.Hold{}}
}

func (f *fakeHolds) CreateTx(_ context.Context, _ *sql.Tx, h *model.Hold) error {
	if f.failCode > 0 {
		f.failCode--
		return repository.ErrCodeTaken
	}
	if f.raceSeat != 0 && h.SeatID == f.raceSeat {
		return repository.ErrSeatHeld
	}
	if _, ok := f.bySeat[h.SeatID]; ok {
		return repository.ErrSeatHeld
	}
	if _, ok := f.byCode[h.HoldCode]; ok {
		return repository.ErrCodeTaken
	}
	f.nextID++
	h.ID = f.nextID
	h.CreatedAt = time.Now().UTC()
	cp := *h
	f.byCode[h.HoldCode] = &cp
	f.bySeat[h.SeatID] = &cp
	return nil
}

func (f *fakeHolds) ExistsForSeatTx(_ context.Context, _ *sql.Tx, seatID uint64) (bool, error) {
	_, ok := f.bySeat[seatID]
	return ok, nil
}

func (f *fakeHolds) GetByCodeTx(_ context.Context, _ *sql.Tx, code string) (*model.Hold, error) {
	h, ok := f.byCode[code]
	if !ok {
		return nil, repository.ErrHoldNotFound
	}
	cp := *h
	return &cp, nil
}

func (f *fakeHolds) DeleteTx(_ context.Context, _ *sql.Tx, id uint64) error {
	for code, h := range f.byCode {
		if h.ID == id {
			delete(f.byCode, code)
			delete(f.bySeat, h.SeatID)
			return nil
		}
	}
	return repository.ErrHoldNotFound
}

func (f *fakeHolds) ListExpiredTx(_ context.Context, _ *sql.Tx, now time.Time, limit int) ([]model.Hold, error) {
	var out []model.Hold
	for _, h := range f.byCode {
		if !h.ExpiresAt.After(now) && len(out) < limit {
			out = append(out, *h)
		}
	}
	return out, nil
}

type fakeBookings struct {
	byPNR    map[string]*model.Booking
	nextID   uint64
	failPNR  int
	deleted  []uint64
	lastSeen *model.Booking
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{byPNR: map[string]*model.Booking{}}
}

func (f *fakeBookings) CreateTx(_ context.Context, _ *sql.Tx, b *model.Booking) error {
	if f.failPNR > 0 {
		f.failPNR--
		return repository.ErrCodeTaken
	}
	if _, ok := f.byPNR[b.PNR]; ok {
		return repository.ErrCodeTaken
	}
	f.nextID++
	b.ID = f.nextID
	b.CreatedAt = time.Now().UTC()
	cp := *b
	f.byPNR[b.PNR] = &cp
	f.lastSeen = &cp
	return nil
}

func (f *fakeBookings) GetByPNRTx(_ context.Context, _ *sql.Tx, pnr string) (*model.Booking, error) {
	b, ok := f.byPNR[pnr]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) DeleteTx(_ context.Context, _ *sql.Tx, id uint64) error {
	for pnr, b := range f.byPNR {
		if b.ID == id {
			delete(f.byPNR, pnr)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return repository.ErrBookingNotFound
}

func (f *fakeBookings) DetailByPNR(context.Context, string) (*repository.BookingDetail, error) {
	return nil, repository.ErrBookingNotFound
}

type fakeGateway struct {
	err     error
	ref     string
	charges []uint32
}

func (g *fakeGateway) Charge(_ context.Context, amountCents uint32, _ string) (string, error) {
	g.charges = append(g.charges, amountCents)
	if g.err != nil {
		return "", g.err
	}
	return g.ref, nil
}

type fixture struct {
	svc      *BookingService
	flights  *fakeFlights
	seats    *fakeSeats
	holds    *fakeHolds
	bookings *fakeBookings
	gateway  *fakeGateway
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f := &fixture{
		flights: &fakeFlights{flight: &model.Flight{
			ID:             1,
			FlightNumber:   "SV101",
			DepartsAt:      now.Add(10 * 24 * time.Hour),
			BasePriceCents: 10000,
			DemandLevel:    1.0,
		}},
		seats: &fakeSeats{
			seats: map[uint64]*model.Seat{
				7: {ID: 7, FlightID: 1, SeatNumber: "12A", Class: model.ClassEconomy, IsAvailable: true},
			},
			inv: model.ClassInventory{Class: model.ClassEconomy, Total: 100, Available: 50},
		},
		holds:    newFakeHolds(),
		bookings: newFakeBookings(),
		gateway:  &fakeGateway{ref: "ch_test_ref"},
		now:      now,
	}
	f.svc = NewBookingService(fakeTx{}, f.flights, f.seats, f.holds, f.bookings, f.gateway, 15*time.Minute)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestInitiateClaimsSeatAndFreezesPrice(t *testing.T) {
	f := newFixture(t)

	hold, err := f.svc.Initiate(context.Background(), 1, "12A", "Dana Reyes")
	require.NoError(t, err)

	// base 10000 * (1 + 0.05) = 10500 for economy, 10 days out,
	// demand 1.0, 50% availability
	assert.Equal(t, uint32(10500), hold.PriceCents)
	assert.Equal(t, uint64(7), hold.SeatID)
	assert.Equal(t, f.now.Add(15*time.Minute), hold.ExpiresAt)
	assert.Regexp(t, `^PB\d{8}$`, hold.HoldCode)
	assert.False(t, f.seats.seats[7].IsAvailable)
}

func TestInitiateRejectsUnavailableSeat(t *testing.T) {
	f := newFixture(t)
	f.seats.seats[7].IsAvailable = false

	_, err := f.svc.Initiate(context.Background(), 1, "12A", "Dana Reyes")
	assert.ErrorIs(t, err, ErrSeatUnavailable)
}

func TestInitiateRejectsHeldSeat(t *testing.T) {
	f := newFixture(t)
	f.holds.bySeat[7] = &model.Hold{ID: 99, SeatID: 7}

	_, err := f.svc.Initiate(context.Background(), 1, "12A", "Dana Reyes")
	assert.ErrorIs(t, err, ErrSeatUnavailable)
}

func TestInitiateLosingInsertRaceMapsToUnavailable(t *testing.T) {
	f := newFixture(t)
	// ExistsForSeatTx sees nothing, but the insert hits the unique
	// constraint, as when a concurrent initiation commits in between.
	f.holds.raceSeat = 7

	_, err := f.svc.Initiate(context.Background(), 1, "12A", "Dana Reyes")
	assert.ErrorIs(t, err, ErrSeatUnavailable)
}

func TestInitiateUnknownSeat(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Initiate(context.Background(), 1, "99Z", "Dana Reyes")
	assert.ErrorIs(t, err, repository.ErrSeatNotFound)
}

func TestInitiateRetriesCollidingHoldCode(t *testing.T) {
	f := newFixture(t)
	f.holds.failCode = 2

	hold, err := f.svc.Initiate(context.Background(), 1, "12A", "Dana Reyes")
	require.NoError(t, err)
	assert.NotEmpty(t, hold.HoldCode)
}

// Parallel initiations racing on one seat must produce exactly one
// hold; every loser sees the same conflict a sequential caller would.
func TestInitiateParallelCallersSingleWinner(t *testing.T) {
	f := newFixture(t)
	f.svc = NewBookingService(&serialTx{}, f.flights, f.seats, f.holds, f.bookings, f.gateway, 15*time.Minute)
	f.svc.now = func() time.Time { return f.now }

	const callers = 32
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Initiate(context.Background(), 1, "12A", "Dana Reyes")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSeatUnavailable):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, conflicts)
	assert.Len(t, f.holds.byCode, 1)
	assert.False(t, f.seats.seats[7].IsAvailable)
}

func TestCompleteFinalizesWithFrozenPrice(t *testing.T) {
	f := newFixture(t)
	hold, err := f.svc.Initiate(context.Background(), 1, "12A", "Dana Reyes")
	require.NoError(t, err)

	// A demand spike after the hold must not change what is charged.
	f.flights.flight.DemandLevel = 1.9

	booking, err := f.svc.Complete(context.Background(), hold.HoldCode)
	require.NoError(t, err)

	assert.Equal(t, hold.PriceCents, booking.PriceCents)
	assert.Equal(t, []uint32{hold.PriceCents}, f.gateway.charges)
	assert.Equal(t, "ch_test_ref", booking.PaymentRef)
	assert.Len(t, booking.PNR, 6)
	assert.Equal(t, uint64(7), booking.SeatID)
	// hold consumed, seat stays claimed by the booking
	_, err = f.holds.GetByCodeTx(context.Background(), nil, hold.HoldCode)
	assert.ErrorIs(t, err, repository.ErrHoldNotFound)
	assert.False(t, f.seats.seats[7].IsAvailable)
}

func TestCompleteDeclinedReleasesSeat(t *testing.T) {
	f := newFixture(t)
	hold, err := f.svc.Initiate(context.Background(), 1, "12A", "Dana Reyes")
	require.NoError(t, err)
	f.gateway.err = ErrPaymentDeclined

	_, err = f.svc.Complete(context.Background(), hold.HoldCode)
	assert.ErrorIs(t, err, ErrPaymentDeclined)

	assert.True(t, f.seats.seats[7].IsAvailable)
	_, err = f.holds.GetByCodeTx(context.Background(), nil, hold.HoldCode)
	assert.ErrorIs(t, err, repository.ErrHoldNotFound)
	assert.Empty(t, f.bookings.byPNR)

	// the released seat can be claimed again
	f.gateway.err = nil
	hold2, err := f.svc.Initiate(context.Background(), 1, "12A", "Omar Haddad")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), hold2.SeatID)
}

func TestCompleteExpiredHoldIsReclaimed(t *testing.T) {
	f := newFixture(t)
	hold, err := f.svc.Initiate(context.Background(), 1, "12A", "Dana Reyes")
	require.NoError(t, err)

	f.now = f.now.Add(16 * time.Minute)

	_, err = f.svc.Complete(context.Background(), hold.HoldCode)
	assert.ErrorIs(t, err, repository.ErrHoldNotFound)

	assert.True(t, f.seats.seats[7].IsAvailable)
	assert.Empty(t, f.gateway.charges, "expired hold must not be charged")
}

func TestCompleteUnknownHoldCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Complete(context.Background(), "PB00000000")
	assert.ErrorIs(t, err, repository.ErrHoldNotFound)
}

func TestCompleteIsNotRepeatable(t *testing.T) {
	f := newFixture(t)
	hold, err := f.svc.Initiate(context.Background(), 1, "12A", "Dana Reyes")
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), hold.HoldCode)
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), hold.HoldCode)
	assert.ErrorIs(t, err, repository.ErrHoldNotFound)
	assert.Len(t, f.gateway.charges, 1)
}

func TestCancelRevertsSeat(t *testing.T) {
	f := newFixture(t)
	hold, err := f.svc.Initiate(context.Background(), 1, "12A", "Dana Reyes")
	require.NoError(t, err)
	booking, err := f.svc.Complete(context.Background(), hold.HoldCode)
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(context.Background(), booking.PNR))

	assert.True(t, f.seats.seats[7].IsAvailable)
	assert.Empty(t, f.bookings.byPNR)

	err = f.svc.Cancel(context.Background(), booking.PNR)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)

	// the freed seat goes straight back on sale
	hold2, err := f.svc.Initiate(context.Background(), 1, "12A", "Omar Haddad")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), hold2.SeatID)
}

func TestReleaseExpiredSweep(t *testing.T) {
	f := newFixture(t)
	f.seats.seats[8] = &model.Seat{ID: 8, FlightID: 1, SeatNumber: "12B", Class: model.ClassEconomy, IsAvailable: true}

	h1, err := f.svc.Initiate(context.Background(), 1, "12A", "Dana Reyes")
	require.NoError(t, err)

	f.now = f.now.Add(10 * time.Minute)
	h2, err := f.svc.Initiate(context.Background(), 1, "12B", "Omar Haddad")
	require.NoError(t, err)

	// only the first hold is past its expiry
	f.now = f.now.Add(6 * time.Minute)

	released, err := f.svc.ReleaseExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	assert.True(t, f.seats.seats[7].IsAvailable)
	assert.False(t, f.seats.seats[8].IsAvailable)
	_, err = f.holds.GetByCodeTx(context.Background(), nil, h1.HoldCode)
	assert.ErrorIs(t, err, repository.ErrHoldNotFound)
	_, err = f.holds.GetByCodeTx(context.Background(), nil, h2.HoldCode)
	assert.NoError(t, err)
}

func TestQuoteUsesFreshDemand(t *testing.T) {
	f := newFixture(t)
	offers := NewOfferService(f.flights, f.seats)
	offers.now = func() time.Time { return f.now }

	q1, err := offers.Quote(context.Background(), 1, model.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, uint32(10500), q1.PriceCents)
	assert.Equal(t, 105.00, q1.Price)

	f.flights.flight.DemandLevel = 1.2
	q2, err := offers.Quote(context.Background(), 1, model.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, uint32(12500), q2.PriceCents)
}

func TestQuoteUnknownClass(t *testing.T) {
	f := newFixture(t)
	f.seats.inv = model.ClassInventory{Class: "FIRST", Total: 0, Available: 0}
	offers := NewOfferService(f.flights, f.seats)

	_, err := offers.Quote(context.Background(), 1, "FIRST")
	assert.Error(t, err)
}

func TestSimulatedGatewayRates(t *testing.T) {
	always := NewSimulatedGateway(1.0, 1)
	ref, err := always.Charge(context.Background(), 1000, "PB00000001")
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	never := NewSimulatedGateway(0.0, 1)
	for i := 0; i < 20; i++ {
		_, err := never.Charge(context.Background(), 1000, "PB00000001")
		assert.ErrorIs(t, err, ErrPaymentDeclined)
	}
}

func TestSimulatedGatewayApproximatesRate(t *testing.T) {
	g := NewSimulatedGateway(0.85, 42)
	ok := 0
	for i := 0; i < 1000; i++ {
		if _, err := g.Charge(context.Background(), 1000, "PB00000001"); err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrPaymentDeclined)
		}
	}
	assert.InDelta(t, 850, ok, 50)
}

func TestUnknownClassPricesAtEconomyTier(t *testing.T) {
	f := newFixture(t)
	f.seats.seats[7].Class = "PREMIUM"
	f.seats.inv = model.ClassInventory{Class: "PREMIUM", Total: 100, Available: 50}

	hold, err := f.svc.Initiate(context.Background(), 1, "12A", "Dana Reyes")
	require.NoError(t, err)
	assert.Equal(t, uint32(10500), hold.PriceCents)
}

func TestGatewayFailureAbortsWithoutCompensationLeak(t *testing.T) {
	f := newFixture(t)
	hold, err := f.svc.Initiate(context.Background(), 1, "12A", "Dana Reyes")
	require.NoError(t, err)
	f.gateway.err = errors.New("gateway timeout")

	_, err = f.svc.Complete(context.Background(), hold.HoldCode)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPaymentDeclined)

	// transient failure leaves the hold intact for a retry
	_, err = f.holds.GetByCodeTx(context.Background(), nil, hold.HoldCode)
	assert.NoError(t, err)
	assert.False(t, f.seats.seats[7].IsAvailable)
}
