package service

import (
	"context"
	"time"

	"github.com/iliyamo/flight-booking/internal/model"
	"github.com/iliyamo/flight-booking/internal/pricing"
)

// ClassOffer is the priced availability of one cabin class on one
// flight at the moment of the request. The price is informational:
// only a hold freezes it.
type ClassOffer struct {
	Class          string  `json:"class"`
	PriceCents     uint32  `json:"price_cents"`
	Price          float64 `json:"price"`
	SeatsAvailable int     `json:"seats_available"`
}

// Offer is one flight in a search result together with its live
// per-class prices.
type Offer struct {
	FlightID        uint64       `json:"flight_id"`
	FlightNumber    string       `json:"flight_number"`
	Airline         string       `json:"airline"`
	OriginCode      string       `json:"origin"`
	OriginCity      string       `json:"origin_city"`
	DestinationCode string       `json:"destination"`
	DestinationCity string       `json:"destination_city"`
	DepartsAt       time.Time    `json:"departs_at"`
	ArrivesAt       time.Time    `json:"arrives_at"`
	Classes         []ClassOffer `json:"classes"`
}

// OfferService prices flights for search and quote requests. All of
// its reads are fresh, outside any transaction: a quote is a snapshot
// that the next demand simulation or sale may invalidate.
type OfferService struct {
	flights FlightStore
	seats   SeatStore
	now     func() time.Time
}

// NewOfferService wires the read side of the catalogue.
func NewOfferService(flights FlightStore, seats SeatStore) *OfferService {
	return &OfferService{
		flights: flights,
		seats:   seats,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Quote prices a single class of a single flight from fresh flight
// and inventory reads. Returns pricing.ErrNotOffered when the flight
// has no seats in the class at all.
func (s *OfferService) Quote(ctx context.Context, flightID uint64, class string) (*ClassOffer, error) {
	flight, err := s.flights.GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	inv, err := s.seats.ClassInventory(ctx, flightID, class)
	if err != nil {
		return nil, err
	}
	price, err := pricing.Calculate(flight.BasePriceCents, flight.DepartsAt, flight.DemandLevel, class, inv, s.now())
	if err != nil {
		return nil, err
	}
	return &ClassOffer{
		Class:          class,
		PriceCents:     price,
		Price:          float64(price) / 100,
		SeatsAvailable: inv.Available,
	}, nil
}

// SearchOffers finds flights between two airports departing on the
// given calendar day and prices every cabin class that still has
// seats available. Classes that are configured but sold out are
// omitted from the offer.
func (s *OfferService) SearchOffers(ctx context.Context, originCode, destCode string, day time.Time) ([]Offer, error) {
	rows, err := s.flights.SearchByRoute(ctx, originCode, destCode, day)
	if err != nil {
		return nil, err
	}
	now := s.now()
	offers := make([]Offer, 0, len(rows))
	for i := range rows {
		classes, err := s.priceClasses(ctx, &rows[i].Flight, now)
		if err != nil {
			return nil, err
		}
		offers = append(offers, Offer{
			FlightID:        rows[i].Flight.ID,
			FlightNumber:    rows[i].Flight.FlightNumber,
			Airline:         rows[i].AirlineName,
			OriginCode:      rows[i].OriginCode,
			OriginCity:      rows[i].OriginCity,
			DestinationCode: rows[i].DestinationCode,
			DestinationCity: rows[i].DestinationCity,
			DepartsAt:       rows[i].Flight.DepartsAt,
			ArrivesAt:       rows[i].Flight.ArrivesAt,
			Classes:         classes,
		})
	}
	return offers, nil
}

// FlightOffers prices every class of one flight, for the flight
// detail view.
func (s *OfferService) FlightOffers(ctx context.Context, flight *model.Flight) ([]ClassOffer, error) {
	return s.priceClasses(ctx, flight, s.now())
}

func (s *OfferService) priceClasses(ctx context.Context, flight *model.Flight, now time.Time) ([]ClassOffer, error) {
	invs, err := s.seats.ClassAvailability(ctx, flight.ID)
	if err != nil {
		return nil, err
	}
	classes := make([]ClassOffer, 0, len(invs))
	for _, inv := range invs {
		if inv.Available == 0 {
			continue
		}
		price, err := pricing.Calculate(flight.BasePriceCents, flight.DepartsAt, flight.DemandLevel, inv.Class, inv, now)
		if err != nil {
			return nil, err
		}
		classes = append(classes, ClassOffer{
			Class:          inv.Class,
			PriceCents:     price,
			Price:          float64(price) / 100,
			SeatsAvailable: inv.Available,
		})
	}
	return classes, nil
}
