// Package queue defines the message payloads exchanged over the
// broker and the background consumer that processes them.
package queue

// BookingConfirmedEvent is published when a hold is successfully
// converted into a booking. It carries enough denormalized detail
// for downstream consumers to log or notify without querying the
// primary database.
type BookingConfirmedEvent struct {
	PNR           string `json:"pnr"`
	FlightNumber  string `json:"flight_number"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartsAt     string `json:"departs_at"`
	SeatNumber    string `json:"seat_number"`
	SeatClass     string `json:"seat_class"`
	PassengerName string `json:"passenger_name"`
	PriceCents    uint32 `json:"price_cents"`
	PaymentRef    string `json:"payment_ref"`
	ConfirmedAt   string `json:"confirmed_at"`
}
