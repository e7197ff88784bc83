package handler

import (
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-booking/internal/repository"
)

// AdminHandler serves the operator surface. All routes require the
// ADMIN role, enforced by middleware.
type AdminHandler struct {
	Flights *repository.FlightRepo

	mu  sync.Mutex
	rng *rand.Rand
}

func NewAdminHandler(flights *repository.FlightRepo) *AdminHandler {
	if flights == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{
		Flights: flights,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SimulateDemand handles POST /v1/admin/demand/simulate. It nudges
// every flight's demand level by a uniform factor in [0.95, 1.05],
// modelling market drift. Quotes issued after this call reflect the
// new levels; existing holds keep their frozen prices.
func (h *AdminHandler) SimulateDemand(c echo.Context) error {
	h.mu.Lock()
	updated, err := h.Flights.RandomizeDemand(c.Request().Context(), h.rng)
	h.mu.Unlock()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "demand update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "demand updated", "flights_updated": updated})
}
