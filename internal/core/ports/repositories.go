package ports

import (
	"context"

	"github.com/samirrijal/geoguard/internal/core/domain"
)

// ZoneSetRepository persists zone sets.
type ZoneSetRepository interface {
	Upsert(ctx context.Context, set *domain.ZoneSet) error
	GetBySlug(ctx context.Context, slug string) (*domain.ZoneSet, error)
	List(ctx context.Context) ([]domain.ZoneSet, error)
}

// ZoneRepository persists zones.
type ZoneRepository interface {
	Upsert(ctx context.Context, zone *domain.Zone) error
	UpsertBatch(ctx context.Context, zones []domain.Zone) error
	ListBySet(ctx context.Context, zoneSetID string) ([]domain.Zone, error)
	GetByID(ctx context.Context, id string) (*domain.Zone, error)
	Delete(ctx context.Context, id string) error
}

// DecisionRepository stores the authorization audit log.
type DecisionRepository interface {
	Insert(ctx context.Context, zoneSetID string, d *domain.Decision) error
	ListRecent(ctx context.Context, zoneSetID string, limit int) ([]domain.Decision, error)
}

// PresenceRepository persists the last known presence of each subject.
type PresenceRepository interface {
	// Get returns nil, nil when the subject has no recorded presence.
	Get(ctx context.Context, subjectID, zoneSetID string) (*domain.Presence, error)
	Upsert(ctx context.Context, zoneSetID string, p *domain.Presence) error
}
