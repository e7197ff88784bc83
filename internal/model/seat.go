package model

// Seat classes recognised by the pricing calculator.  The class
// column is a free string so new cabins can be added without a
// migration; unknown classes price at the economy tier.
const (
	ClassEconomy  = "ECONOMY"
	ClassBusiness = "BUSINESS"
	ClassFirst    = "FIRST"
)

// Seat is one physical seat on a flight.  IsAvailable is the single
// source of truth for whether the seat can be held: it is flipped
// only by the reservation state machine and only inside a
// transaction.
//
// Fields:
//  ID          – primary key identifier.
//  FlightID    – flight the seat belongs to.
//  SeatNumber  – human-readable label, e.g. "12A" (unique per flight).
//  Class       – cabin class tag (ECONOMY, BUSINESS, FIRST, ...).
//  IsAvailable – whether the seat can currently be held.
type Seat struct {
	ID          uint64 // seats.id
	FlightID    uint64 // seats.flight_id
	SeatNumber  string // seats.seat_number
	Class       string // seats.class
	IsAvailable bool   // seats.is_available
}

// ClassInventory is a snapshot of seat counts for one cabin class of
// one flight.  The scarcity pricing factor is derived from it, so
// counts must reflect the seats table at the instant of the read.
type ClassInventory struct {
	Class     string // cabin class the counts describe
	Total     int    // seats configured in this class
	Available int    // seats currently available
}
