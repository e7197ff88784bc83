package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-booking/internal/repository"
)

// ReferenceHandler serves airport and airline reference data. These
// rows change rarely, so their routes sit behind the response cache.
type ReferenceHandler struct {
	Airports *repository.AirportRepo
	Airlines *repository.AirlineRepo
}

func NewReferenceHandler(airports *repository.AirportRepo, airlines *repository.AirlineRepo) *ReferenceHandler {
	if airports == nil || airlines == nil {
		panic("nil repository passed to NewReferenceHandler")
	}
	return &ReferenceHandler{Airports: airports, Airlines: airlines}
}

type airportPart struct {
	ID      uint64 `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// ListAirports handles GET /v1/airports.
func (h *ReferenceHandler) ListAirports(c echo.Context) error {
	airports, err := h.Airports.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]airportPart, 0, len(airports))
	for _, a := range airports {
		out = append(out, airportPart{ID: a.ID, Code: a.Code, Name: a.Name, City: a.City, Country: a.Country})
	}
	return c.JSON(http.StatusOK, echo.Map{"airports": out})
}

type airlinePart struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// ListAirlines handles GET /v1/airlines.
func (h *ReferenceHandler) ListAirlines(c echo.Context) error {
	airlines, err := h.Airlines.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]airlinePart, 0, len(airlines))
	for _, a := range airlines {
		out = append(out, airlinePart{ID: a.ID, Name: a.Name})
	}
	return c.JSON(http.StatusOK, echo.Map{"airlines": out})
}
