package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/geoguard/internal/core/domain"
	"github.com/samirrijal/geoguard/internal/core/ports"
	"github.com/samirrijal/geoguard/internal/pkg/geospatial"
	"github.com/samirrijal/geoguard/internal/pkg/metrics"
	"github.com/samirrijal/geoguard/internal/pkg/telemetry"
)

// AuthorizeInput describes one authorization check. The point comes from
// Point when set, otherwise from the Coordinates string. Places come from the
// zone set named by ZoneSet followed by any inline Places.
type AuthorizeInput struct {
	Coordinates  string
	Point        *domain.GeoPoint
	ZoneSet      string
	Places       []any
	RadiusMeters *float64
}

// AuthorizationOptions tunes the AuthorizationService.
type AuthorizationOptions struct {
	DefaultRadiusMeters float64
	MaxPlaces           int
}

// AuthorizationService decides whether a location falls inside authorized
// places.
type AuthorizationService struct {
	zones     *ZoneService
	decisions ports.DecisionRepository
	publisher ports.EventPublisher
	opts      AuthorizationOptions
	now       func() time.Time
}

// NewAuthorizationService creates a new AuthorizationService. decisions and
// publisher may be nil.
func NewAuthorizationService(
	zones *ZoneService,
	decisions ports.DecisionRepository,
	publisher ports.EventPublisher,
	opts AuthorizationOptions,
) *AuthorizationService {
	return &AuthorizationService{
		zones:     zones,
		decisions: decisions,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
	}
}

// Authorize evaluates the input point against its places. An unknown or
// malformed place never fails the check; it is skipped and logged.
func (s *AuthorizationService) Authorize(ctx context.Context, in AuthorizeInput) (*domain.Decision, error) {
	point, err := resolvePoint(in)
	if err != nil {
		return nil, err
	}
	if in.RadiusMeters != nil && !validRadius(*in.RadiusMeters) {
		return nil, domain.ErrInvalidRadius
	}
	if in.ZoneSet == "" && len(in.Places) == 0 {
		return nil, domain.ErrNoPlaces
	}
	if s.opts.MaxPlaces > 0 && len(in.Places) > s.opts.MaxPlaces {
		return nil, fmt.Errorf("%w: %d inline places, limit is %d", domain.ErrTooManyPlaces, len(in.Places), s.opts.MaxPlaces)
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanAuthorize)
	defer span.End()

	start := time.Now()
	radius := s.opts.DefaultRadiusMeters
	var snap *ZoneSnapshot
	var inputs []geospatial.PlaceInput

	if in.ZoneSet != "" {
		snap, err = s.zones.Snapshot(ctx, in.ZoneSet)
		if err != nil {
			return nil, err
		}
		if snap.Set.DefaultRadiusMeters > 0 {
			radius = snap.Set.DefaultRadiusMeters
		}
		inputs = placeInputs(snap.Zones)
	}
	for _, p := range in.Places {
		inputs = append(inputs, geospatial.PlaceInput{Geometry: p})
	}
	if in.RadiusMeters != nil {
		radius = *in.RadiusMeters
	}

	verdict := geospatial.EvaluatePlaces(point, inputs, radius)

	d := &domain.Decision{
		ZoneSet:      in.ZoneSet,
		Point:        point,
		RadiusMeters: radius,
		Authorized:   verdict.Inside,
		Evaluated:    verdict.Evaluated,
		Skipped:      len(verdict.Skipped),
		EvaluatedAt:  s.now().UTC(),
	}
	if snap != nil && verdict.MatchedIndex >= 0 && verdict.MatchedIndex < len(snap.Zones) {
		d.MatchedZoneID = snap.Zones[verdict.MatchedIndex].ID
	}

	s.logSkipped(ctx, snap, verdict.Skipped)
	s.record(d, in.ZoneSet != "", time.Since(start))
	span.SetAttributes(
		attribute.String(telemetry.AttrZoneSet, in.ZoneSet),
		attribute.Int(telemetry.AttrPlaces, len(inputs)),
		attribute.Int(telemetry.AttrSkipped, d.Skipped),
		attribute.Bool(telemetry.AttrAuthorized, d.Authorized),
	)

	if snap != nil {
		s.audit(ctx, snap.Set.ID, d)
	}
	return d, nil
}

// Distance returns the great-circle distance in meters between two
// "lat,lon" coordinate strings.
func (s *AuthorizationService) Distance(ctx context.Context, from, to string) (float64, error) {
	a, ok := geospatial.ParseCoordinate(from)
	if !ok {
		return 0, fmt.Errorf("%w: from %q", domain.ErrInvalidCoordinates, from)
	}
	b, ok := geospatial.ParseCoordinate(to)
	if !ok {
		return 0, fmt.Errorf("%w: to %q", domain.ErrInvalidCoordinates, to)
	}
	return geospatial.DistanceMeters(a, b), nil
}

// RecentDecisions returns the latest audited decisions of a zone set.
func (s *AuthorizationService) RecentDecisions(ctx context.Context, slug string, limit int) ([]domain.Decision, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	set, err := s.zones.GetZoneSet(ctx, slug)
	if err != nil {
		return nil, err
	}
	if s.decisions == nil {
		return nil, nil
	}
	return s.decisions.ListRecent(ctx, set.ID, limit)
}

func resolvePoint(in AuthorizeInput) (domain.GeoPoint, error) {
	if in.Point != nil {
		if !in.Point.Valid() {
			return domain.GeoPoint{}, domain.ErrInvalidCoordinates
		}
		return *in.Point, nil
	}
	p, ok := geospatial.ParseCoordinate(in.Coordinates)
	if !ok {
		return domain.GeoPoint{}, fmt.Errorf("%w: %q", domain.ErrInvalidCoordinates, in.Coordinates)
	}
	return p, nil
}

func (s *AuthorizationService) logSkipped(ctx context.Context, snap *ZoneSnapshot, skipped []int) {
	for _, idx := range skipped {
		if snap != nil && idx < len(snap.Zones) {
			slog.WarnContext(ctx, "skipping malformed zone",
				"zone_set", snap.Set.Slug, "zone_id", snap.Zones[idx].ID, "zone_key", snap.Zones[idx].Key)
			continue
		}
		offset := 0
		if snap != nil {
			offset = len(snap.Zones)
		}
		slog.WarnContext(ctx, "skipping malformed inline place", "index", idx-offset)
	}
}

func (s *AuthorizationService) record(d *domain.Decision, fromZoneSet bool, elapsed time.Duration) {
	result := "denied"
	if d.Authorized {
		result = "authorized"
	}
	source := "inline"
	if fromZoneSet {
		source = "zone_set"
	}
	metrics.Evaluations.WithLabelValues(result).Inc()
	metrics.EvaluationDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if d.Skipped > 0 {
		metrics.PlacesSkipped.Add(float64(d.Skipped))
	}
}

// audit publishes and stores the decision; both are best-effort.
func (s *AuthorizationService) audit(ctx context.Context, zoneSetID string, d *domain.Decision) {
	if s.decisions != nil {
		if err := s.decisions.Insert(ctx, zoneSetID, d); err != nil {
			slog.WarnContext(ctx, "decision audit failed", "zone_set", d.ZoneSet, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishDecision(ctx, d); err != nil {
			slog.WarnContext(ctx, "publish decision failed", "zone_set", d.ZoneSet, "error", err)
		}
	}
}
