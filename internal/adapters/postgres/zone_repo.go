package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/samirrijal/geoguard/internal/core/domain"
)

const upsertZoneSQL = `
	INSERT INTO zones (zone_set_id, zone_key, name, geometry, radius_meters)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (zone_set_id, zone_key) DO UPDATE
	SET name = EXCLUDED.name, geometry = EXCLUDED.geometry,
	    radius_meters = EXCLUDED.radius_meters
	RETURNING id, created_at
`

// ZoneRepo implements ports.ZoneRepository with pgx. Geometry is stored as
// jsonb in its external [lon, lat] GeoJSON form.
type ZoneRepo struct {
	db *DB
}

// NewZoneRepo creates a new ZoneRepo.
func NewZoneRepo(db *DB) *ZoneRepo {
	return &ZoneRepo{db: db}
}

// Upsert inserts or replaces a zone keyed by (zone set, key).
func (r *ZoneRepo) Upsert(ctx context.Context, z *domain.Zone) error {
	return r.db.Pool.QueryRow(ctx, upsertZoneSQL,
		z.ZoneSetID, z.Key, z.Name, []byte(z.Geometry), z.RadiusMeters,
	).Scan(&z.ID, &z.CreatedAt)
}

// UpsertBatch inserts many zones using pgx.Batch.
func (r *ZoneRepo) UpsertBatch(ctx context.Context, zones []domain.Zone) error {
	batch := &pgx.Batch{}
	for _, z := range zones {
		batch.Queue(upsertZoneSQL, z.ZoneSetID, z.Key, z.Name, []byte(z.Geometry), z.RadiusMeters)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range zones {
		if err := br.QueryRow().Scan(&zones[i].ID, &zones[i].CreatedAt); err != nil {
			return fmt.Errorf("batch upsert zone %s: %w", zones[i].Key, err)
		}
	}
	return nil
}

// ListBySet returns all zones of a zone set ordered by key.
func (r *ZoneRepo) ListBySet(ctx context.Context, zoneSetID string) ([]domain.Zone, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, zone_set_id, zone_key, name, geometry, radius_meters, created_at
		FROM zones WHERE zone_set_id = $1
		ORDER BY zone_key
	`, zoneSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []domain.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, *z)
	}
	return zones, rows.Err()
}

// GetByID returns a zone by UUID.
func (r *ZoneRepo) GetByID(ctx context.Context, id string) (*domain.Zone, error) {
	z, err := scanZone(r.db.Pool.QueryRow(ctx, `
		SELECT id, zone_set_id, zone_key, name, geometry, radius_meters, created_at
		FROM zones WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrZoneNotFound
	}
	return z, err
}

// Delete removes a zone by UUID.
func (r *ZoneRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM zones WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrZoneNotFound
	}
	return nil
}

func scanZone(row pgx.Row) (*domain.Zone, error) {
	var z domain.Zone
	var geometry []byte
	if err := row.Scan(&z.ID, &z.ZoneSetID, &z.Key, &z.Name, &geometry, &z.RadiusMeters, &z.CreatedAt); err != nil {
		return nil, err
	}
	z.Geometry = geometry
	return &z, nil
}
