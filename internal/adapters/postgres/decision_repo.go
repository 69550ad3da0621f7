package postgres

import (
	"context"

	"github.com/samirrijal/geoguard/internal/core/domain"
)

// DecisionRepo implements ports.DecisionRepository on the
// authorization_decisions audit table.
type DecisionRepo struct {
	db *DB
}

func NewDecisionRepo(db *DB) *DecisionRepo {
	return &DecisionRepo{db: db}
}

func (r *DecisionRepo) Insert(ctx context.Context, zoneSetID string, d *domain.Decision) error {
	var matched *string
	if d.MatchedZoneID != "" {
		matched = &d.MatchedZoneID
	}
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO authorization_decisions
			(time, zone_set_id, lat, lon, radius_meters, authorized, matched_zone_id, evaluated, skipped)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, d.EvaluatedAt, zoneSetID, d.Point.Lat, d.Point.Lon, d.RadiusMeters,
		d.Authorized, matched, d.Evaluated, d.Skipped,
	).Scan(&d.ID)
}

// ListRecent returns the newest decisions of a zone set first.
func (r *DecisionRepo) ListRecent(ctx context.Context, zoneSetID string, limit int) ([]domain.Decision, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT d.id, s.slug, d.time, d.lat, d.lon, d.radius_meters, d.authorized,
		       COALESCE(d.matched_zone_id::text, ''), d.evaluated, d.skipped
		FROM authorization_decisions d
		JOIN zone_sets s ON s.id = d.zone_set_id
		WHERE d.zone_set_id = $1
		ORDER BY d.time DESC
		LIMIT $2
	`, zoneSetID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []domain.Decision
	for rows.Next() {
		var d domain.Decision
		if err := rows.Scan(
			&d.ID, &d.ZoneSet, &d.EvaluatedAt, &d.Point.Lat, &d.Point.Lon,
			&d.RadiusMeters, &d.Authorized, &d.MatchedZoneID, &d.Evaluated, &d.Skipped,
		); err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
