package model

import "time"

// Flight represents a scheduled flight between two airports.  The
// base price and demand level feed the dynamic pricing calculator.
// DemandLevel is overwritten at any time by the demand simulation,
// so callers must always re-read the flight row before pricing and
// never cache the value on a long-lived object.
//
// Fields:
//  ID             – primary key identifier.
//  FlightNumber   – public flight designator (unique).
//  AirlineID      – carrier operating the flight.
//  OriginID       – departure airport.
//  DestinationID  – arrival airport.
//  DepartsAt      – scheduled departure (UTC).
//  ArrivesAt      – scheduled arrival (UTC).
//  BasePriceCents – economy base fare in cents before adjustments.
//  DemandLevel    – market demand multiplier, nominal 1.0.
type Flight struct {
	ID             uint64    // flights.id
	FlightNumber   string    // flights.flight_number
	AirlineID      uint64    // flights.airline_id
	OriginID       uint64    // flights.origin_id
	DestinationID  uint64    // flights.destination_id
	DepartsAt      time.Time // flights.departs_at
	ArrivesAt      time.Time // flights.arrives_at
	BasePriceCents uint32    // flights.base_price_cents
	DemandLevel    float64   // flights.demand_level
}
