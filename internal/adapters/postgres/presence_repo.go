package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samirrijal/geoguard/internal/core/domain"
)

// PresenceRepo implements ports.PresenceRepository.
type PresenceRepo struct {
	db *DB
}

func NewPresenceRepo(db *DB) *PresenceRepo {
	return &PresenceRepo{db: db}
}

func (r *PresenceRepo) Get(ctx context.Context, subjectID, zoneSetID string) (*domain.Presence, error) {
	p := &domain.Presence{SubjectID: subjectID}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT s.slug, p.inside, COALESCE(p.zone_id::text, ''), p.updated_at
		FROM subject_presence p
		JOIN zone_sets s ON s.id = p.zone_set_id
		WHERE p.subject_id = $1 AND p.zone_set_id = $2
	`, subjectID, zoneSetID).Scan(&p.ZoneSet, &p.Inside, &p.ZoneID, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PresenceRepo) Upsert(ctx context.Context, zoneSetID string, p *domain.Presence) error {
	var zoneID *string
	if p.ZoneID != "" {
		zoneID = &p.ZoneID
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO subject_presence (subject_id, zone_set_id, inside, zone_id, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subject_id, zone_set_id) DO UPDATE
		SET inside = EXCLUDED.inside, zone_id = EXCLUDED.zone_id, updated_at = EXCLUDED.updated_at
	`, p.SubjectID, zoneSetID, p.Inside, zoneID, p.UpdatedAt)
	return err
}
