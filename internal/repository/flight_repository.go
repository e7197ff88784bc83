// Package repository contains data access logic for flight domain
// operations. This file defines repository methods for flights. The
// demand_level column is volatile: an external simulation overwrites it
// at any time, so pricing code must fetch the flight row immediately
// before calculating and never hold it on a long-lived object.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel comparisons
	"math"         // math rounds simulated demand levels
	"math/rand"    // rand drives the demand simulation
	"time"

	"github.com/iliyamo/flight-booking/internal/model"
)

// FlightRepo manages persistence for flights.
type FlightRepo struct {
	db *sql.DB
}

// NewFlightRepo constructs a FlightRepo with the given DB handle.
func NewFlightRepo(db *sql.DB) *FlightRepo {
	return &FlightRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *FlightRepo) DB() *sql.DB {
	return r.db
}

const flightCols = `id, flight_number, airline_id, origin_id, destination_id,
	departs_at, arrives_at, base_price_cents, demand_level`

func scanFlight(row *sql.Row) (*model.Flight, error) {
	var f model.Flight
	err := row.Scan(&f.ID, &f.FlightNumber, &f.AirlineID, &f.OriginID, &f.DestinationID,
		&f.DepartsAt, &f.ArrivesAt, &f.BasePriceCents, &f.DemandLevel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

// GetByID retrieves a flight by id. Each call reads the row fresh so
// the caller sees the current demand_level.
func (r *FlightRepo) GetByID(ctx context.Context, id uint64) (*model.Flight, error) {
	const q = `SELECT ` + flightCols + ` FROM flights WHERE id = ?`
	return scanFlight(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx is GetByID within an existing transaction, used when a
// state transition needs the flight and its demand level at the same
// isolation level as the seat reads.
func (r *FlightRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Flight, error) {
	const q = `SELECT ` + flightCols + ` FROM flights WHERE id = ?`
	return scanFlight(tx.QueryRowContext(ctx, q, id))
}

// RandomizeDemand simulates real-world demand shifts: every flight that
// has not yet departed gets a fresh demand_level drawn uniformly from
// [0.95, 1.05], rounded to three decimals like the column. It returns
// the number of flights updated. The write is deliberately outside any
// booking transaction; it models an independent external writer.
func (r *FlightRepo) RandomizeDemand(ctx context.Context, rng *rand.Rand) (int, error) {
	const sel = `SELECT id FROM flights WHERE departs_at > UTC_TIMESTAMP()`
	rows, err := r.db.QueryContext(ctx, sel)
	if err != nil {
		return 0, err
	}
	var ids []uint64
	for rows.Next() {
		var id uint64
		if scanErr := rows.Scan(&id); scanErr != nil {
			rows.Close()
			return 0, scanErr
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	const upd = `UPDATE flights SET demand_level = ? WHERE id = ?`
	updated := 0
	for _, id := range ids {
		level := math.Round((0.95+rng.Float64()*0.10)*1000) / 1000 // uniform [0.95,1.05), 3 decimals
		if _, err := r.db.ExecContext(ctx, upd, level, id); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// RouteRow is a flight joined with its route and carrier reference data,
// as needed by search results and flight detail responses.
type RouteRow struct {
	Flight          model.Flight
	AirlineName     string
	OriginCode      string
	OriginCity      string
	DestinationCode string
	DestinationCity string
}

// GetRouteByID loads one flight together with airline and airport
// details. Returns ErrFlightNotFound when the id does not exist.
func (r *FlightRepo) GetRouteByID(ctx context.Context, id uint64) (*RouteRow, error) {
	const q = `SELECT f.id, f.flight_number, f.airline_id, f.origin_id, f.destination_id,
	                  f.departs_at, f.arrives_at, f.base_price_cents, f.demand_level,
	                  al.name, o.code, o.city, d.code, d.city
	           FROM flights f
	           JOIN airlines al ON al.id = f.airline_id
	           JOIN airports o  ON o.id = f.origin_id
	           JOIN airports d  ON d.id = f.destination_id
	           WHERE f.id = ?`
	var row RouteRow
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&row.Flight.ID, &row.Flight.FlightNumber, &row.Flight.AirlineID,
		&row.Flight.OriginID, &row.Flight.DestinationID,
		&row.Flight.DepartsAt, &row.Flight.ArrivesAt,
		&row.Flight.BasePriceCents, &row.Flight.DemandLevel,
		&row.AirlineName, &row.OriginCode, &row.OriginCity,
		&row.DestinationCode, &row.DestinationCity,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return &row, nil
}

// SearchByRoute returns flights between two airports departing on the
// given calendar day (UTC). The airports must exist; ErrAirportNotFound
// is returned otherwise so handlers can distinguish a bad code from an
// empty result.
func (r *FlightRepo) SearchByRoute(ctx context.Context, originCode, destCode string, day time.Time) ([]RouteRow, error) {
	origin, dest, err := r.resolveRoute(ctx, originCode, destCode)
	if err != nil {
		return nil, err
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	const q = `SELECT f.id, f.flight_number, f.airline_id, f.origin_id, f.destination_id,
	                  f.departs_at, f.arrives_at, f.base_price_cents, f.demand_level,
	                  al.name, o.code, o.city, d.code, d.city
	           FROM flights f
	           JOIN airlines al ON al.id = f.airline_id
	           JOIN airports o  ON o.id = f.origin_id
	           JOIN airports d  ON d.id = f.destination_id
	           WHERE f.origin_id = ? AND f.destination_id = ?
	             AND f.departs_at >= ? AND f.departs_at < ?
	           ORDER BY f.departs_at ASC`
	rows, err := r.db.QueryContext(ctx, q, origin, dest, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RouteRow, 0)
	for rows.Next() {
		var row RouteRow
		if err := rows.Scan(
			&row.Flight.ID, &row.Flight.FlightNumber, &row.Flight.AirlineID,
			&row.Flight.OriginID, &row.Flight.DestinationID,
			&row.Flight.DepartsAt, &row.Flight.ArrivesAt,
			&row.Flight.BasePriceCents, &row.Flight.DemandLevel,
			&row.AirlineName, &row.OriginCode, &row.OriginCity,
			&row.DestinationCode, &row.DestinationCity,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// resolveRoute maps two IATA codes to airport ids in one query.
func (r *FlightRepo) resolveRoute(ctx context.Context, originCode, destCode string) (uint64, uint64, error) {
	const q = `SELECT id FROM airports WHERE code = ?`
	var origin, dest uint64
	if err := r.db.QueryRowContext(ctx, q, normalizeCode(originCode)).Scan(&origin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrAirportNotFound
		}
		return 0, 0, err
	}
	if err := r.db.QueryRowContext(ctx, q, normalizeCode(destCode)).Scan(&dest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrAirportNotFound
		}
		return 0, 0, err
	}
	return origin, dest, nil
}
