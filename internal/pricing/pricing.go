// Package pricing implements the dynamic fare calculator.  The
// calculator is a pure function of the flight, the cabin class and a
// fresh inventory snapshot: it keeps no state and must be re-run on
// every query, because demand and availability change between calls.
package pricing

import (
	"errors"
	"math"
	"time"

	"github.com/iliyamo/flight-booking/internal/model"
)

// ErrNotOffered is returned when a cabin class has no seats
// configured on a flight.  It is the only failure mode of the
// calculator; every other input yields a price.
var ErrNotOffered = errors.New("seat class not offered on this flight")

// floorMultiplier caps how far the summed factors can push the fare
// below the base price.  The final price never drops under half the
// base fare.
const floorMultiplier = 0.5

// tierFactors maps cabin classes to their fixed fare uplift.  Classes
// absent from the map price at the economy tier.
var tierFactors = map[string]float64{
	model.ClassEconomy:  0.00,
	model.ClassBusiness: 0.30,
	model.ClassFirst:    0.70,
}

// TierFactor returns the fixed uplift for a cabin class.  Unknown
// classes contribute nothing.
func TierFactor(class string) float64 {
	return tierFactors[class]
}

// TimeFactor prices the lead time until departure, evaluated at call
// time.  Brackets are half-open on the lower side and checked in
// ascending order; the first match wins.  A departure in the past
// carries the largest surcharge.
func TimeFactor(departsAt, now time.Time) float64 {
	days := departsAt.Sub(now).Hours() / 24
	switch {
	case days < 0:
		return 0.50
	case days < 3:
		return 0.25
	case days < 7:
		return 0.15
	case days < 30:
		return 0.05
	case days < 90:
		return -0.10
	default:
		return 0.00
	}
}

// DemandFactor centres the flight's stored demand multiplier so that
// a nominal level of exactly 1.0 contributes nothing.
func DemandFactor(demandLevel float64) float64 {
	return demandLevel - 1.0
}

// ScarcityFactor prices the ratio of available to total seats in a
// class.  Callers must ensure Total > 0; Calculate guards the zero
// case with ErrNotOffered before reaching here.
func ScarcityFactor(inv model.ClassInventory) float64 {
	ratio := float64(inv.Available) / float64(inv.Total)
	switch {
	case ratio < 0.10:
		return 0.30
	case ratio < 0.25:
		return 0.15
	case ratio > 0.75:
		return -0.05
	default:
		return 0.00
	}
}

// Calculate computes the fare in cents for one seat of the given
// class.  The four adjustment factors are summed into a single
// multiplier, floored at 0.5, and applied to the base fare; the
// result is rounded to the nearest cent.  It returns ErrNotOffered
// when the class has no seats configured, so callers never divide by
// zero.
func Calculate(basePriceCents uint32, departsAt time.Time, demandLevel float64, class string, inv model.ClassInventory, now time.Time) (uint32, error) {
	if inv.Total == 0 {
		return 0, ErrNotOffered
	}
	total := TierFactor(class) +
		TimeFactor(departsAt, now) +
		DemandFactor(demandLevel) +
		ScarcityFactor(inv)
	mult := 1.0 + total
	if mult < floorMultiplier {
		mult = floorMultiplier
	}
	return uint32(math.Round(float64(basePriceCents) * mult)), nil
}
