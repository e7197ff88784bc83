package repository // repository defines data access for reference data

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"
	"strings"

	"github.com/iliyamo/flight-booking/internal/model"
)

// AirportRepo provides read access to the airports table. Airports are
// seeded by an external process; this service never writes them.
type AirportRepo struct {
	db *sql.DB
}

// NewAirportRepo constructs an AirportRepo with the given DB handle.
func NewAirportRepo(db *sql.DB) *AirportRepo {
	return &AirportRepo{db: db}
}

// List returns all airports ordered by IATA code, for search dropdowns.
func (r *AirportRepo) List(ctx context.Context) ([]model.Airport, error) {
	const q = `SELECT id, code, name, city, country FROM airports ORDER BY code`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Airport
	for rows.Next() {
		var a model.Airport
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.City, &a.Country); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// normalizeCode upper-cases and trims an IATA code before lookup.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GetByCode retrieves an airport by its IATA code (case-insensitive).
func (r *AirportRepo) GetByCode(ctx context.Context, code string) (*model.Airport, error) {
	const q = `SELECT id, code, name, city, country FROM airports WHERE code = ?`
	var a model.Airport
	err := r.db.QueryRowContext(ctx, q, normalizeCode(code)).
		Scan(&a.ID, &a.Code, &a.Name, &a.City, &a.Country)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAirportNotFound
		}
		return nil, err
	}
	return &a, nil
}
