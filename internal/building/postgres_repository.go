package building

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/osm"
)

// Schema creates the registration table. Codes and ways are both unique so a
// building keeps the first code it was given.
const Schema = `
CREATE TABLE IF NOT EXISTS building_codes (
	code       TEXT PRIMARY KEY,
	osm_way_id BIGINT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL registration repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the registration table if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create building_codes: %w", err)
	}
	return nil
}

// GetByCode retrieves a registration by code.
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*Registration, error) {
	query := `
		SELECT code, osm_way_id, created_at
		FROM building_codes
		WHERE code = $1
	`

	return r.scanRegistration(ctx, query, code)
}

// GetByWayID retrieves the registration for a way.
func (r *PostgresRepository) GetByWayID(ctx context.Context, id osm.WayID) (*Registration, error) {
	query := `
		SELECT code, osm_way_id, created_at
		FROM building_codes
		WHERE osm_way_id = $1
	`

	return r.scanRegistration(ctx, query, int64(id))
}

// Save inserts the registration, ignoring conflicts, and returns the stored row for the way.
func (r *PostgresRepository) Save(ctx context.Context, reg *Registration) (*Registration, error) {
	query := `
		INSERT INTO building_codes (code, osm_way_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, reg.Code, int64(reg.WayID), reg.CreatedAt); err != nil {
		return nil, err
	}

	stored, err := r.GetByWayID(ctx, reg.WayID)
	if errors.Is(err, ErrBuildingNotFound) {
		// The code was taken by a different way.
		return r.GetByCode(ctx, reg.Code)
	}
	return stored, err
}

// List returns registrations newest first.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*Registration, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT code, osm_way_id, created_at
		FROM building_codes
		ORDER BY created_at DESC, code
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []*Registration
	for rows.Next() {
		var reg Registration
		var wayID int64
		if err := rows.Scan(&reg.Code, &wayID, &reg.CreatedAt); err != nil {
			return nil, err
		}
		reg.WayID = osm.WayID(wayID)
		regs = append(regs, &reg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return regs, nil
}

// scanRegistration scans a single registration from a query.
func (r *PostgresRepository) scanRegistration(ctx context.Context, query string, args ...interface{}) (*Registration, error) {
	var reg Registration
	var wayID int64

	err := r.pool.QueryRow(ctx, query, args...).Scan(&reg.Code, &wayID, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBuildingNotFound
		}
		return nil, err
	}

	reg.WayID = osm.WayID(wayID)
	return &reg, nil
}
