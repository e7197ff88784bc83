// Package router registers the HTTP routes and attaches middleware
// to each route group.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/flight-booking/internal/config"
	"github.com/iliyamo/flight-booking/internal/handler"
	"github.com/iliyamo/flight-booking/internal/middleware"
)

// Handlers groups every handler the router needs.
type Handlers struct {
	Auth      *handler.AuthHandler
	Flights   *handler.FlightHandler
	Bookings  *handler.BookingHandler
	Reference *handler.ReferenceHandler
	Admin     *handler.AdminHandler
}

// Register wires all routes on the Echo instance.
//
// The booking routes sit behind the Redis token-bucket limiter; the
// reference-data routes sit behind the response cache. Flight search
// and quotes are never cached because their prices depend on live
// demand and inventory.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// auth
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	me := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	me.GET("/me", h.Auth.Me)

	// reference data, cached
	cached := e.Group("/v1", middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	cached.GET("/airports", h.Reference.ListAirports)
	cached.GET("/airlines", h.Reference.ListAirlines)

	// flight catalogue, always live
	e.POST("/v1/flights/search", h.Flights.Search)
	e.GET("/v1/flights/:id", h.Flights.Details)
	e.GET("/v1/flights/:id/quote", h.Flights.Quote)

	// booking lifecycle, rate limited
	limited := e.Group("/v1", middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	limited.POST("/bookings/initiate", h.Bookings.Initiate)
	limited.POST("/payments/process", h.Bookings.Complete)
	limited.GET("/bookings/:pnr", h.Bookings.Detail)
	limited.DELETE("/bookings/:pnr", h.Bookings.Cancel)

	// operator surface
	admin := e.Group(
		"/v1/admin",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole("ADMIN"),
	)
	admin.POST("/demand/simulate", h.Admin.SimulateDemand)
}
