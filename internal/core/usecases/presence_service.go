package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/geoguard/internal/core/domain"
	"github.com/samirrijal/geoguard/internal/core/ports"
	"github.com/samirrijal/geoguard/internal/pkg/geospatial"
	"github.com/samirrijal/geoguard/internal/pkg/metrics"
	"github.com/samirrijal/geoguard/internal/pkg/telemetry"
)

// presence state survives a day in the cache; Postgres is authoritative
const presenceCacheTTL = 24 * 60 * 60

// PresenceService tracks whether subjects are inside their zone set and
// emits enter/exit events when that changes.
type PresenceService struct {
	zones         *ZoneService
	presence      ports.PresenceRepository
	cache         ports.CacheService
	publisher     ports.EventPublisher
	defaultRadius float64
	now           func() time.Time
}

// NewPresenceService creates a new PresenceService. cache and publisher may
// be nil.
func NewPresenceService(
	zones *ZoneService,
	presence ports.PresenceRepository,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	defaultRadiusMeters float64,
) *PresenceService {
	return &PresenceService{
		zones:         zones,
		presence:      presence,
		cache:         cache,
		publisher:     publisher,
		defaultRadius: defaultRadiusMeters,
		now:           time.Now,
	}
}

func presenceCacheKey(slug, subject string) string {
	return "presence:" + slug + ":" + subject
}

// ProcessPosition evaluates a reported position. It returns the published
// event, or nil when the subject's presence did not change.
func (s *PresenceService) ProcessPosition(ctx context.Context, report *domain.PositionReport) (*domain.PresenceEvent, error) {
	if strings.TrimSpace(report.SubjectID) == "" {
		return nil, domain.ErrInvalidSubject
	}
	if !report.Location.Valid() {
		return nil, domain.ErrInvalidCoordinates
	}
	if report.Time.IsZero() {
		report.Time = s.now().UTC()
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanProcessPosition)
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrSubject, report.SubjectID),
		attribute.String(telemetry.AttrZoneSet, report.ZoneSet),
	)

	snap, err := s.zones.Snapshot(ctx, report.ZoneSet)
	if err != nil {
		return nil, err
	}
	metrics.PositionsProcessed.Inc()

	radius := s.defaultRadius
	if snap.Set.DefaultRadiusMeters > 0 {
		radius = snap.Set.DefaultRadiusMeters
	}
	verdict := geospatial.EvaluatePlaces(report.Location, placeInputs(snap.Zones), radius)

	current := domain.Presence{
		SubjectID: report.SubjectID,
		ZoneSet:   report.ZoneSet,
		Inside:    verdict.Inside,
		UpdatedAt: report.Time,
	}
	if verdict.Inside {
		current.ZoneID = snap.Zones[verdict.MatchedIndex].ID
	}

	previous, err := s.lastPresence(ctx, snap.Set.ID, report)
	if err != nil {
		return nil, fmt.Errorf("load presence: %w", err)
	}
	if previous != nil && previous.Inside == current.Inside && previous.ZoneID == current.ZoneID {
		return nil, nil
	}

	if err := s.presence.Upsert(ctx, snap.Set.ID, &current); err != nil {
		return nil, fmt.Errorf("store presence: %w", err)
	}
	if s.cache != nil {
		if data, err := json.Marshal(current); err == nil {
			_ = s.cache.Set(ctx, presenceCacheKey(report.ZoneSet, report.SubjectID), data, presenceCacheTTL)
		}
	}

	// a first sighting outside every zone is not a transition
	wasInside := previous != nil && previous.Inside
	if wasInside == current.Inside {
		return nil, nil
	}

	event := &domain.PresenceEvent{
		SubjectID:  report.SubjectID,
		ZoneSet:    report.ZoneSet,
		Transition: domain.TransitionExit,
		ZoneID:     current.ZoneID,
		Location:   report.Location,
		Time:       report.Time,
	}
	if current.Inside {
		event.Transition = domain.TransitionEnter
	} else if previous != nil {
		event.ZoneID = previous.ZoneID
	}

	metrics.PresenceTransitions.WithLabelValues(string(event.Transition)).Inc()
	if s.publisher != nil {
		if err := s.publisher.PublishPresence(ctx, event); err != nil {
			slog.WarnContext(ctx, "publish presence failed",
				"subject_id", event.SubjectID, "zone_set", event.ZoneSet, "error", err)
		}
	}
	return event, nil
}

func (s *PresenceService) lastPresence(ctx context.Context, zoneSetID string, report *domain.PositionReport) (*domain.Presence, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, presenceCacheKey(report.ZoneSet, report.SubjectID)); err == nil {
			var p domain.Presence
			if err := json.Unmarshal(data, &p); err == nil {
				return &p, nil
			}
		}
	}
	return s.presence.Get(ctx, report.SubjectID, zoneSetID)
}
