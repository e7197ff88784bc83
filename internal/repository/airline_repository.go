package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/flight-booking/internal/model"
)

// AirlineRepo provides read access to the airlines table.
type AirlineRepo struct {
	db *sql.DB
}

// NewAirlineRepo constructs an AirlineRepo with the given DB handle.
func NewAirlineRepo(db *sql.DB) *AirlineRepo {
	return &AirlineRepo{db: db}
}

// List returns all airlines ordered by name.
func (r *AirlineRepo) List(ctx context.Context) ([]model.Airline, error) {
	const q = `SELECT id, name FROM airlines ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Airline
	for rows.Next() {
		var a model.Airline
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
