package model

// Airport is a reference-data row describing an airport that flights
// depart from or arrive at.  Airports are seeded by an external
// process; the booking core only reads them.
//
// Fields:
//  ID      – primary key identifier.
//  Code    – three-letter IATA code (unique).
//  Name    – full airport name.
//  City    – city the airport serves.
//  Country – country the airport is located in.
type Airport struct {
	ID      uint64 // airports.id
	Code    string // airports.code
	Name    string // airports.name
	City    string // airports.city
	Country string // airports.country
}
