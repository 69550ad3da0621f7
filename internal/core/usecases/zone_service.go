package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/samirrijal/geoguard/internal/core/domain"
	"github.com/samirrijal/geoguard/internal/core/ports"
	"github.com/samirrijal/geoguard/internal/pkg/geospatial"
	"github.com/samirrijal/geoguard/internal/pkg/metrics"
)

// ZoneSnapshot is a zone set together with all of its zones, as cached.
type ZoneSnapshot struct {
	Set   domain.ZoneSet `json:"set"`
	Zones []domain.Zone  `json:"zones"`
}

// ZoneService manages zone sets and their zones.
type ZoneService struct {
	sets      ports.ZoneSetRepository
	zones     ports.ZoneRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	cacheTTL  int
}

// NewZoneService creates a new ZoneService. cache and publisher may be nil.
func NewZoneService(
	sets ports.ZoneSetRepository,
	zones ports.ZoneRepository,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	cacheTTLSeconds int,
) *ZoneService {
	return &ZoneService{sets: sets, zones: zones, cache: cache, publisher: publisher, cacheTTL: cacheTTLSeconds}
}

func zonesCacheKey(slug string) string { return "zones:set:" + slug }

// ListZoneSets returns every zone set.
func (s *ZoneService) ListZoneSets(ctx context.Context) ([]domain.ZoneSet, error) {
	return s.sets.List(ctx)
}

// GetZoneSet returns a zone set by slug.
func (s *ZoneService) GetZoneSet(ctx context.Context, slug string) (*domain.ZoneSet, error) {
	if slug == "" {
		return nil, domain.ErrInvalidSlug
	}
	return s.sets.GetBySlug(ctx, slug)
}

// UpsertZoneSet creates or updates a zone set.
func (s *ZoneService) UpsertZoneSet(ctx context.Context, set *domain.ZoneSet) error {
	if strings.TrimSpace(set.Slug) == "" {
		return domain.ErrInvalidSlug
	}
	if !validRadius(set.DefaultRadiusMeters) {
		return domain.ErrInvalidRadius
	}
	if err := s.sets.Upsert(ctx, set); err != nil {
		return fmt.Errorf("upsert zone set: %w", err)
	}
	s.Invalidate(ctx, set.Slug)
	return nil
}

// Snapshot returns the zone set and its zones, reading through the cache.
func (s *ZoneService) Snapshot(ctx context.Context, slug string) (*ZoneSnapshot, error) {
	if slug == "" {
		return nil, domain.ErrInvalidSlug
	}

	key := zonesCacheKey(slug)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var snap ZoneSnapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				metrics.CacheHits.WithLabelValues("zones").Inc()
				return &snap, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("zones").Inc()
	}

	set, err := s.sets.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	zones, err := s.zones.ListBySet(ctx, set.ID)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	snap := &ZoneSnapshot{Set: *set, Zones: zones}

	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			_ = s.cache.Set(ctx, key, data, s.cacheTTL)
		}
	}
	return snap, nil
}

// ListZones returns the zones of a zone set.
func (s *ZoneService) ListZones(ctx context.Context, slug string) ([]domain.Zone, error) {
	snap, err := s.Snapshot(ctx, slug)
	if err != nil {
		return nil, err
	}
	return snap.Zones, nil
}

// ValidateZone checks that a zone can be evaluated: its geometry must decode
// to a point or polygon and its radius, if any, must be non-negative.
func ValidateZone(z *domain.Zone) error {
	if strings.TrimSpace(z.Key) == "" {
		return domain.ErrInvalidZoneKey
	}
	if _, ok := geospatial.BuildPlace(z.Geometry); !ok {
		return domain.ErrInvalidGeometry
	}
	if z.RadiusMeters != nil && !validRadius(*z.RadiusMeters) {
		return domain.ErrInvalidRadius
	}
	return nil
}

// UpsertZone validates and stores a zone in the given zone set.
func (s *ZoneService) UpsertZone(ctx context.Context, slug string, z *domain.Zone) error {
	if err := ValidateZone(z); err != nil {
		return err
	}
	set, err := s.GetZoneSet(ctx, slug)
	if err != nil {
		return err
	}
	z.ZoneSetID = set.ID

	if err := s.zones.Upsert(ctx, z); err != nil {
		return fmt.Errorf("upsert zone: %w", err)
	}
	s.changed(ctx, slug)
	return nil
}

// ImportZones stores already validated zones in one batch.
func (s *ZoneService) ImportZones(ctx context.Context, slug string, zones []domain.Zone) error {
	if len(zones) == 0 {
		return nil
	}
	set, err := s.GetZoneSet(ctx, slug)
	if err != nil {
		return err
	}
	for i := range zones {
		zones[i].ZoneSetID = set.ID
	}
	if err := s.zones.UpsertBatch(ctx, zones); err != nil {
		return fmt.Errorf("import zones: %w", err)
	}
	s.changed(ctx, slug)
	return nil
}

// DeleteZone removes a zone that belongs to the given zone set.
func (s *ZoneService) DeleteZone(ctx context.Context, slug, id string) error {
	set, err := s.GetZoneSet(ctx, slug)
	if err != nil {
		return err
	}
	zone, err := s.zones.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if zone.ZoneSetID != set.ID {
		return domain.ErrZoneNotFound
	}
	if err := s.zones.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, slug)
	return nil
}

// Invalidate drops the cached snapshot of a zone set.
func (s *ZoneService) Invalidate(ctx context.Context, slug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, zonesCacheKey(slug)); err != nil {
		slog.Warn("zone cache invalidation failed", "zone_set", slug, "error", err)
	}
}

func (s *ZoneService) changed(ctx context.Context, slug string) {
	s.Invalidate(ctx, slug)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishZoneChanged(ctx, slug); err != nil {
		slog.Warn("publish zone change failed", "zone_set", slug, "error", err)
	}
}

func validRadius(r float64) bool {
	return r >= 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}

// placeInputs maps stored zones to engine inputs, keeping their order.
func placeInputs(zones []domain.Zone) []geospatial.PlaceInput {
	inputs := make([]geospatial.PlaceInput, len(zones))
	for i, z := range zones {
		inputs[i] = geospatial.PlaceInput{Geometry: []byte(z.Geometry), RadiusMeters: z.RadiusMeters}
	}
	return inputs
}
