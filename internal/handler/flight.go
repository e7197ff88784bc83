package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-booking/internal/pricing"
	"github.com/iliyamo/flight-booking/internal/repository"
	"github.com/iliyamo/flight-booking/internal/service"
)

// FlightHandler serves the public flight catalogue: route search,
// flight details with the live seat map, and single-class quotes.
// Prices in these responses are snapshots; only initiating a booking
// freezes one.
type FlightHandler struct {
	Flights *repository.FlightRepo
	Seats   *repository.SeatRepo
	Offers  *service.OfferService
}

func NewFlightHandler(flights *repository.FlightRepo, seats *repository.SeatRepo, offers *service.OfferService) *FlightHandler {
	if flights == nil || seats == nil || offers == nil {
		panic("nil dependency passed to NewFlightHandler")
	}
	return &FlightHandler{Flights: flights, Seats: seats, Offers: offers}
}

type searchReq struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"` // YYYY-MM-DD
}

// Search handles POST /v1/flights/search. It returns every flight on
// the requested route and calendar day with priced per-class
// availability.
func (h *FlightHandler) Search(c echo.Context) error {
	var req searchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	origin := strings.ToUpper(strings.TrimSpace(req.Origin))
	dest := strings.ToUpper(strings.TrimSpace(req.Destination))
	if origin == "" || dest == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "origin/destination required"})
	}
	if origin == dest {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "origin and destination must differ"})
	}
	day, err := time.Parse("2006-01-02", req.DepartureDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_date must be YYYY-MM-DD"})
	}

	offers, err := h.Offers.SearchOffers(c.Request().Context(), origin, dest, day)
	if err != nil {
		if errors.Is(err, repository.ErrAirportNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown airport code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"flights": offers})
}

type seatPart struct {
	SeatNumber  string `json:"seat_number"`
	Class       string `json:"class"`
	IsAvailable bool   `json:"is_available"`
}

// Details handles GET /v1/flights/:id. It returns the flight with
// its route, priced classes and full seat map.
func (h *FlightHandler) Details(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	ctx := c.Request().Context()

	row, err := h.Flights.GetRouteByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	classes, err := h.Offers.FlightOffers(ctx, &row.Flight)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "pricing failed"})
	}

	seats, err := h.Seats.ListByFlight(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	seatMap := make([]seatPart, 0, len(seats))
	for _, s := range seats {
		seatMap = append(seatMap, seatPart{SeatNumber: s.SeatNumber, Class: s.Class, IsAvailable: s.IsAvailable})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"flight": service.Offer{
			FlightID:        row.Flight.ID,
			FlightNumber:    row.Flight.FlightNumber,
			Airline:         row.AirlineName,
			OriginCode:      row.OriginCode,
			OriginCity:      row.OriginCity,
			DestinationCode: row.DestinationCode,
			DestinationCity: row.DestinationCity,
			DepartsAt:       row.Flight.DepartsAt,
			ArrivesAt:       row.Flight.ArrivesAt,
			Classes:         classes,
		},
		"seats": seatMap,
	})
}

// Quote handles GET /v1/flights/:id/quote?class=ECONOMY. It prices
// one cabin class from fresh demand and inventory reads.
func (h *FlightHandler) Quote(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	class := strings.ToUpper(strings.TrimSpace(c.QueryParam("class")))
	if class == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "class query parameter required"})
	}

	quote, err := h.Offers.Quote(c.Request().Context(), id, class)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrFlightNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		case errors.Is(err, pricing.ErrNotOffered):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not offered on this flight"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "pricing failed"})
		}
	}

	return c.JSON(http.StatusOK, quote)
}
