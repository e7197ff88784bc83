package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-booking/internal/model"
	"github.com/iliyamo/flight-booking/internal/queue"
	"github.com/iliyamo/flight-booking/internal/repository"
	"github.com/iliyamo/flight-booking/internal/service"
)

type stubReservations struct {
	hold        *model.Hold
	initiateErr error

	booking     *model.Booking
	completeErr error

	detail    *repository.BookingDetail
	detailErr error

	cancelErr    error
	cancelledPNR string
}

func (s *stubReservations) Initiate(_ context.Context, flightID uint64, seatNumber, passengerName string) (*model.Hold, error) {
	if s.initiateErr != nil {
		return nil, s.initiateErr
	}
	return s.hold, nil
}

func (s *stubReservations) Complete(_ context.Context, holdCode string) (*model.Booking, error) {
	if s.completeErr != nil {
		return nil, s.completeErr
	}
	return s.booking, nil
}

func (s *stubReservations) Cancel(_ context.Context, pnr string) error {
	s.cancelledPNR = pnr
	return s.cancelErr
}

func (s *stubReservations) Detail(_ context.Context, pnr string) (*repository.BookingDetail, error) {
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	return s.detail, nil
}

func newBookingRequest(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestInitiateReturnsHold(t *testing.T) {
	stub := &stubReservations{hold: &model.Hold{
		HoldCode:      "PB12345678",
		FlightID:      1,
		SeatID:        7,
		PriceCents:    10500,
		PassengerName: "Dana Reyes",
		ExpiresAt:     time.Date(2026, 5, 1, 12, 15, 0, 0, time.UTC),
	}}
	h := NewBookingHandler(stub)

	c, rec := newBookingRequest(http.MethodPost, "/v1/bookings/initiate",
		`{"flight_id":1,"seat_number":"12a","passenger_name":"Dana Reyes"}`)
	require.NoError(t, h.Initiate(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp holdResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PB12345678", resp.HoldCode)
	assert.Equal(t, "12A", resp.SeatNumber) // normalized
	assert.Equal(t, uint32(10500), resp.PriceCents)
	assert.Equal(t, 105.00, resp.Price)
}

func TestInitiateValidation(t *testing.T) {
	h := NewBookingHandler(&stubReservations{})

	c, rec := newBookingRequest(http.MethodPost, "/v1/bookings/initiate",
		`{"flight_id":0,"seat_number":"","passenger_name":""}`)
	require.NoError(t, h.Initiate(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInitiateStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"flight missing", repository.ErrFlightNotFound, http.StatusNotFound},
		{"seat missing", repository.ErrSeatNotFound, http.StatusNotFound},
		{"seat taken", service.ErrSeatUnavailable, http.StatusConflict},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewBookingHandler(&stubReservations{initiateErr: tc.err})
			c, rec := newBookingRequest(http.MethodPost, "/v1/bookings/initiate",
				`{"flight_id":1,"seat_number":"12A","passenger_name":"Dana Reyes"}`)
			require.NoError(t, h.Initiate(c))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCompleteReturnsDetailAndPublishes(t *testing.T) {
	stub := &stubReservations{
		booking: &model.Booking{PNR: "A1B2C3", PriceCents: 10500, PaymentRef: "ch_ref"},
		detail: &repository.BookingDetail{
			PNR:           "A1B2C3",
			FlightNumber:  "SV101",
			Origin:        "Riyadh (RUH)",
			Destination:   "Jeddah (JED)",
			DepartsAt:     time.Date(2026, 5, 11, 9, 0, 0, 0, time.UTC),
			SeatNumber:    "12A",
			SeatClass:     model.ClassEconomy,
			PassengerName: "Dana Reyes",
			PriceCents:    10500,
			Price:         105.00,
		},
	}
	h := NewBookingHandler(stub)
	published := make(chan queue.BookingConfirmedEvent, 1)
	h.publish = func(_ context.Context, ev queue.BookingConfirmedEvent) error {
		published <- ev
		return nil
	}

	c, rec := newBookingRequest(http.MethodPost, "/v1/payments/process", `{"hold_code":"PB12345678"}`)
	require.NoError(t, h.Complete(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp repository.BookingDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "A1B2C3", resp.PNR)

	select {
	case ev := <-published:
		assert.Equal(t, "A1B2C3", ev.PNR)
		assert.Equal(t, "ch_ref", ev.PaymentRef)
		assert.Equal(t, uint32(10500), ev.PriceCents)
	case <-time.After(time.Second):
		t.Fatal("confirmation event was not published")
	}
}

func TestCompleteStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown or expired hold", repository.ErrHoldNotFound, http.StatusNotFound},
		{"declined", service.ErrPaymentDeclined, http.StatusPaymentRequired},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewBookingHandler(&stubReservations{completeErr: tc.err})
			c, rec := newBookingRequest(http.MethodPost, "/v1/payments/process", `{"hold_code":"PB12345678"}`)
			require.NoError(t, h.Complete(c))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCompleteRequiresHoldCode(t *testing.T) {
	h := NewBookingHandler(&stubReservations{})
	c, rec := newBookingRequest(http.MethodPost, "/v1/payments/process", `{"hold_code":""}`)
	require.NoError(t, h.Complete(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetailByPNR(t *testing.T) {
	stub := &stubReservations{detail: &repository.BookingDetail{PNR: "A1B2C3"}}
	h := NewBookingHandler(stub)

	c, rec := newBookingRequest(http.MethodGet, "/", "")
	c.SetPath("/v1/bookings/:pnr")
	c.SetParamNames("pnr")
	c.SetParamValues("a1b2c3")
	require.NoError(t, h.Detail(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	h2 := NewBookingHandler(&stubReservations{detailErr: repository.ErrBookingNotFound})
	c2, rec2 := newBookingRequest(http.MethodGet, "/", "")
	c2.SetPath("/v1/bookings/:pnr")
	c2.SetParamNames("pnr")
	c2.SetParamValues("ZZZZZZ")
	require.NoError(t, h2.Detail(c2))
	assert.Equal(t, http.StatusNotFound, rec2.Code)
}

func TestCancelNormalizesPNR(t *testing.T) {
	stub := &stubReservations{}
	h := NewBookingHandler(stub)

	c, rec := newBookingRequest(http.MethodDelete, "/", "")
	c.SetPath("/v1/bookings/:pnr")
	c.SetParamNames("pnr")
	c.SetParamValues("a1b2c3")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A1B2C3", stub.cancelledPNR)
}

func TestCancelRejectsMalformedPNR(t *testing.T) {
	h := NewBookingHandler(&stubReservations{})
	c, rec := newBookingRequest(http.MethodDelete, "/", "")
	c.SetPath("/v1/bookings/:pnr")
	c.SetParamNames("pnr")
	c.SetParamValues("abc")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
