package model

// Airline is a reference-data row naming a carrier.  Like airports,
// airlines are owned by an upstream seeding process.
type Airline struct {
	ID   uint64 // airlines.id
	Name string // airlines.name (unique)
}
