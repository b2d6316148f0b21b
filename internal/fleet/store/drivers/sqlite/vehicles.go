package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
)

type vehiclesRepo struct {
	db dbtx
}

const vehicleColumns = `id, brand, model, year, color, license_plate, price_cents, available, created_by, created_at, updated_at`

func (r *vehiclesRepo) GetVehicleByID(ctx context.Context, id string) (domain.Vehicle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id)
	return scanVehicle(row)
}

func (r *vehiclesRepo) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return r.queryVehicles(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles ORDER BY created_at DESC`)
}

func (r *vehiclesRepo) ListAvailableVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return r.queryVehicles(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE available = 1 ORDER BY created_at DESC`)
}

func (r *vehiclesRepo) SearchVehicles(ctx context.Context, brand, model string) ([]domain.Vehicle, error) {
	// LIKE is case-insensitive for ASCII in SQLite; empty filters match all.
	return r.queryVehicles(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles
		 WHERE brand LIKE '%' || ? || '%' AND model LIKE '%' || ? || '%'
		 ORDER BY created_at DESC`,
		brand, model)
}

func (r *vehiclesRepo) LicensePlateExists(ctx context.Context, plate string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM vehicles WHERE license_plate = ?`, plate).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *vehiclesRepo) CreateVehicle(ctx context.Context, v domain.Vehicle) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicles (id, brand, model, year, color, license_plate, price_cents, available, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Brand, v.Model, v.Year, v.Color, v.LicensePlate, v.PriceCents,
		v.Available, nullIfEmpty(v.CreatedBy), v.CreatedAt.UTC(), v.UpdatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *vehiclesRepo) UpdateVehicle(ctx context.Context, v domain.Vehicle) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE vehicles SET brand = ?, model = ?, year = ?, color = ?, license_plate = ?,
		 price_cents = ?, available = ?, updated_at = ? WHERE id = ?`,
		v.Brand, v.Model, v.Year, v.Color, v.LicensePlate, v.PriceCents,
		v.Available, time.Now().UTC(), v.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRowAffected(res)
}

func (r *vehiclesRepo) DeleteVehicle(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *vehiclesRepo) queryVehicles(ctx context.Context, query string, args ...any) ([]domain.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVehicle(s scanner) (domain.Vehicle, error) {
	var v domain.Vehicle
	var createdBy sql.NullString
	err := s.Scan(&v.ID, &v.Brand, &v.Model, &v.Year, &v.Color, &v.LicensePlate,
		&v.PriceCents, &v.Available, &createdBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return domain.Vehicle{}, mapNotFound(err)
	}
	if createdBy.Valid {
		v.CreatedBy = createdBy.String
	}
	return v, nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
