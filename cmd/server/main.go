package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-booking/internal/config"
	"github.com/iliyamo/flight-booking/internal/database"
	"github.com/iliyamo/flight-booking/internal/handler"
	"github.com/iliyamo/flight-booking/internal/queue"
	"github.com/iliyamo/flight-booking/internal/repository"
	"github.com/iliyamo/flight-booking/internal/router"
	"github.com/iliyamo/flight-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	flights := repository.NewFlightRepo(db)
	seats := repository.NewSeatRepo(db)
	holds := repository.NewHoldRepo(db)
	bookings := repository.NewBookingRepo(db)
	airports := repository.NewAirportRepo(db)
	airlines := repository.NewAirlineRepo(db)
	users := repository.NewUserRepo(db)

	gateway := service.NewSimulatedGateway(cfg.PaySuccessRate, time.Now().UnixNano())
	holdTTL := time.Duration(cfg.HoldTTLMin) * time.Minute
	bookingSvc := service.NewBookingService(database.Runner{DB: db}, flights, seats, holds, bookings, gateway, holdTTL)
	offerSvc := service.NewOfferService(flights, seats)

	h := router.Handlers{
		Auth:      handler.NewAuthHandler(cfg, users),
		Flights:   handler.NewFlightHandler(flights, seats, offerSvc),
		Bookings:  handler.NewBookingHandler(bookingSvc),
		Reference: handler.NewReferenceHandler(airports, airlines),
		Admin:     handler.NewAdminHandler(flights),
	}

	e := echo.New()
	router.Register(e, h, cfg, rdb)

	// confirmation log consumer
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	// expired-hold sweep
	go sweepExpiredHolds(bookingSvc, holdTTL)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// sweepExpiredHolds periodically reclaims holds whose payment never
// arrived, returning their seats to the available pool. The sweep
// interval is a fraction of the TTL so a seat is never stranded for
// much longer than the hold window itself.
func sweepExpiredHolds(svc *service.BookingService, ttl time.Duration) {
	interval := ttl / 5
	if interval < 30*time.Second {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := svc.ReleaseExpired(ctx)
		cancel()
		if err != nil {
			log.Printf("hold sweep failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("hold sweep released %d expired hold(s)", n)
		}
	}
}
