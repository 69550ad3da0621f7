package ports

import (
	"context"

	"github.com/samirrijal/geoguard/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishDecision(ctx context.Context, d *domain.Decision) error
	PublishPresence(ctx context.Context, event *domain.PresenceEvent) error
	PublishZoneChanged(ctx context.Context, zoneSet string) error
	PublishBatchSummary(ctx context.Context, summary *domain.BatchSummary) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribePositions(ctx context.Context, handler func(ctx context.Context, report *domain.PositionReport) error) error
	SubscribeZoneChanges(ctx context.Context, handler func(ctx context.Context, zoneSet string) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
