package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-booking/internal/model"
	"github.com/iliyamo/flight-booking/internal/queue"
	"github.com/iliyamo/flight-booking/internal/repository"
	"github.com/iliyamo/flight-booking/internal/service"
)

// Reservations is the slice of the booking service the HTTP layer
// uses. Tests substitute a fake.
type Reservations interface {
	Initiate(ctx context.Context, flightID uint64, seatNumber, passengerName string) (*model.Hold, error)
	Complete(ctx context.Context, holdCode string) (*model.Booking, error)
	Cancel(ctx context.Context, pnr string) error
	Detail(ctx context.Context, pnr string) (*repository.BookingDetail, error)
}

// BookingHandler serves the reservation lifecycle endpoints.
type BookingHandler struct {
	Svc Reservations

	// publish is swapped out in tests. Defaults to the RabbitMQ
	// publisher.
	publish func(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

func NewBookingHandler(svc Reservations) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc, publish: queue.PublishBookingConfirmed}
}

type initiateReq struct {
	FlightID      uint64 `json:"flight_id"`
	SeatNumber    string `json:"seat_number"`
	PassengerName string `json:"passenger_name"`
}

type holdResp struct {
	HoldCode      string    `json:"hold_code"`
	FlightID      uint64    `json:"flight_id"`
	SeatNumber    string    `json:"seat_number"`
	PassengerName string    `json:"passenger_name"`
	PriceCents    uint32    `json:"price_cents"`
	Price         float64   `json:"price"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Initiate handles POST /v1/bookings/initiate. On success the seat is
// claimed and the returned hold code must be presented to the payment
// endpoint before the hold expires.
func (h *BookingHandler) Initiate(c echo.Context) error {
	var req initiateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.SeatNumber = strings.ToUpper(strings.TrimSpace(req.SeatNumber))
	req.PassengerName = strings.TrimSpace(req.PassengerName)
	if req.FlightID == 0 || req.SeatNumber == "" || req.PassengerName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "flight_id, seat_number and passenger_name are required"})
	}

	hold, err := h.Svc.Initiate(c.Request().Context(), req.FlightID, req.SeatNumber, req.PassengerName)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrFlightNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		case errors.Is(err, repository.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found on this flight"})
		case errors.Is(err, service.ErrSeatUnavailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat is no longer available"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "initiate booking failed"})
		}
	}

	return c.JSON(http.StatusCreated, holdResp{
		HoldCode:      hold.HoldCode,
		FlightID:      hold.FlightID,
		SeatNumber:    req.SeatNumber,
		PassengerName: hold.PassengerName,
		PriceCents:    hold.PriceCents,
		Price:         float64(hold.PriceCents) / 100,
		ExpiresAt:     hold.ExpiresAt,
	})
}

type completeReq struct {
	HoldCode string `json:"hold_code"`
}

// Complete handles POST /v1/payments/process. It charges the frozen
// hold price and either finalizes the booking or releases the seat.
func (h *BookingHandler) Complete(c echo.Context) error {
	var req completeReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.HoldCode) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hold_code required"})
	}

	booking, err := h.Svc.Complete(c.Request().Context(), strings.TrimSpace(req.HoldCode))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrHoldNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hold not found or expired"})
		case errors.Is(err, service.ErrPaymentDeclined):
			return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment declined, seat released"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "complete booking failed"})
		}
	}

	detail, err := h.Svc.Detail(c.Request().Context(), booking.PNR)
	if err != nil {
		// booking is committed; return the bare essentials
		log.Printf("booking: load detail for %s failed: %v", booking.PNR, err)
		return c.JSON(http.StatusCreated, echo.Map{
			"pnr":         booking.PNR,
			"price_cents": booking.PriceCents,
			"price":       float64(booking.PriceCents) / 100,
			"payment_ref": booking.PaymentRef,
		})
	}

	h.publishConfirmed(detail, booking)

	return c.JSON(http.StatusCreated, detail)
}

// publishConfirmed emits the booking.confirmed event without blocking
// the response. Failures are logged inside the publisher and ignored:
// the booking is already committed.
func (h *BookingHandler) publishConfirmed(d *repository.BookingDetail, b *model.Booking) {
	ev := queue.BookingConfirmedEvent{
		PNR:           d.PNR,
		FlightNumber:  d.FlightNumber,
		Origin:        d.Origin,
		Destination:   d.Destination,
		DepartsAt:     d.DepartsAt.UTC().Format(time.RFC3339),
		SeatNumber:    d.SeatNumber,
		SeatClass:     d.SeatClass,
		PassengerName: d.PassengerName,
		PriceCents:    d.PriceCents,
		PaymentRef:    b.PaymentRef,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.publish(ctx, ev)
	}()
}

// Detail handles GET /v1/bookings/:pnr.
func (h *BookingHandler) Detail(c echo.Context) error {
	pnr := strings.ToUpper(strings.TrimSpace(c.Param("pnr")))
	if len(pnr) != 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pnr"})
	}

	detail, err := h.Svc.Detail(c.Request().Context(), pnr)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, detail)
}

// Cancel handles DELETE /v1/bookings/:pnr. The seat returns to the
// available pool immediately.
func (h *BookingHandler) Cancel(c echo.Context) error {
	pnr := strings.ToUpper(strings.TrimSpace(c.Param("pnr")))
	if len(pnr) != 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pnr"})
	}

	if err := h.Svc.Cancel(c.Request().Context(), pnr); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel booking failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "cancelled", "pnr": pnr})
}
