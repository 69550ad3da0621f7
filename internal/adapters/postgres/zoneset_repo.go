package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samirrijal/geoguard/internal/core/domain"
)

// ZoneSetRepo implements ports.ZoneSetRepository.
type ZoneSetRepo struct {
	db *DB
}

func NewZoneSetRepo(db *DB) *ZoneSetRepo {
	return &ZoneSetRepo{db: db}
}

// Upsert inserts or renames a zone set and fills in its ID.
func (r *ZoneSetRepo) Upsert(ctx context.Context, set *domain.ZoneSet) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO zone_sets (slug, name, default_radius_meters)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name, default_radius_meters = EXCLUDED.default_radius_meters
		RETURNING id, created_at
	`, set.Slug, set.Name, set.DefaultRadiusMeters).Scan(&set.ID, &set.CreatedAt)
}

func (r *ZoneSetRepo) GetBySlug(ctx context.Context, slug string) (*domain.ZoneSet, error) {
	s := &domain.ZoneSet{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, slug, name, default_radius_meters, created_at
		FROM zone_sets WHERE slug = $1
	`, slug).Scan(&s.ID, &s.Slug, &s.Name, &s.DefaultRadiusMeters, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrZoneSetNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ZoneSetRepo) List(ctx context.Context) ([]domain.ZoneSet, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, slug, name, default_radius_meters, created_at
		FROM zone_sets ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []domain.ZoneSet
	for rows.Next() {
		var s domain.ZoneSet
		if err := rows.Scan(&s.ID, &s.Slug, &s.Name, &s.DefaultRadiusMeters, &s.CreatedAt); err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}
