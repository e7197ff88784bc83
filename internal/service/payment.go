package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// ErrPaymentDeclined is returned when the payment gateway rejects a
// charge. It is a recoverable condition: the seat has already been
// released by the time the caller sees it, so retrying with a fresh
// hold is always safe.
var ErrPaymentDeclined = errors.New("payment declined")

// PaymentGateway decides the outcome of a charge. The state machine
// depends on this interface rather than on randomness directly so
// tests can force both branches deterministically.
type PaymentGateway interface {
	// Charge attempts to collect amountCents for the given hold code.
	// On success it returns an opaque gateway reference; on rejection
	// it returns ErrPaymentDeclined.
	Charge(ctx context.Context, amountCents uint32, holdCode string) (string, error)
}

// SimulatedGateway approximates an external payment processor with a
// weighted random draw. There is no real money anywhere in this
// system.
type SimulatedGateway struct {
	successRate float64
	mu          sync.Mutex
	rng         *rand.Rand
}

// NewSimulatedGateway builds a gateway succeeding with the given
// probability. The seed parameter makes staging runs reproducible;
// pass a time-derived seed in production wiring.
func NewSimulatedGateway(successRate float64, seed int64) *SimulatedGateway {
	return &SimulatedGateway{
		successRate: successRate,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Charge draws the simulated outcome. The rng is guarded because
// charges run on concurrent request goroutines.
func (g *SimulatedGateway) Charge(_ context.Context, _ uint32, _ string) (string, error) {
	g.mu.Lock()
	draw := g.rng.Float64()
	g.mu.Unlock()
	if draw > g.successRate {
		return "", ErrPaymentDeclined
	}
	return uuid.NewString(), nil
}
