package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/geoguard/internal/core/domain"
	"github.com/samirrijal/geoguard/internal/core/ports"
	"github.com/samirrijal/geoguard/internal/core/usecases"
	"github.com/samirrijal/geoguard/internal/pkg/geospatial"
	"github.com/samirrijal/geoguard/internal/pkg/metrics"
	"github.com/samirrijal/geoguard/internal/pkg/telemetry"
)

// ZoneSource loads a zone set with its zones.
type ZoneSource interface {
	Snapshot(ctx context.Context, slug string) (*usecases.ZoneSnapshot, error)
}

// PlacePayload is a zone geometry as carried between activities.
type PlacePayload struct {
	Geometry     json.RawMessage
	RadiusMeters *float64
}

// ZoneSetPlaces is the result of LoadZones.
type ZoneSetPlaces struct {
	Places              []PlacePayload
	DefaultRadiusMeters float64
}

// EvaluateChunkInput is one slice of a batch.
type EvaluateChunkInput struct {
	Points       []string
	Places       []PlacePayload
	RadiusMeters float64
}

// ChunkResult holds one result per input point, in order. Invalid points
// are reported as false and counted in Invalid.
type ChunkResult struct {
	Results    []bool
	Authorized int
	Invalid    int
}

// BatchActivities holds the activity implementations for the batch check
// workflow.
type BatchActivities struct {
	Zones               ZoneSource
	Publisher           ports.EventPublisher
	DefaultRadiusMeters float64
	// Concurrency bounds per-chunk parallelism; 0 means GOMAXPROCS.
	Concurrency int
}

// LoadZones returns the raw zone payloads of a zone set.
func (a *BatchActivities) LoadZones(ctx context.Context, slug string) (*ZoneSetPlaces, error) {
	snap, err := a.Zones.Snapshot(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("load zones %s: %w", slug, err)
	}

	out := &ZoneSetPlaces{DefaultRadiusMeters: a.DefaultRadiusMeters}
	if snap.Set.DefaultRadiusMeters > 0 {
		out.DefaultRadiusMeters = snap.Set.DefaultRadiusMeters
	}
	for _, z := range snap.Zones {
		out.Places = append(out.Places, PlacePayload{Geometry: z.Geometry, RadiusMeters: z.RadiusMeters})
	}
	return out, nil
}

// EvaluateChunk runs the point-in-places check for every point of the chunk.
func (a *BatchActivities) EvaluateChunk(ctx context.Context, in EvaluateChunkInput) (*ChunkResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanEvaluateChunk)
	defer span.End()
	span.SetAttributes(attribute.Int(telemetry.AttrChunkSize, len(in.Points)))

	places := make([]geospatial.PlaceInput, len(in.Places))
	for i, p := range in.Places {
		places[i] = geospatial.PlaceInput{Geometry: []byte(p.Geometry), RadiusMeters: p.RadiusMeters}
	}

	results := make([]bool, len(in.Points))
	valid := make([]bool, len(in.Points))

	limit := a.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, raw := range in.Points {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			point, ok := geospatial.ParseCoordinate(raw)
			if !ok {
				return nil
			}
			valid[i] = true
			results[i] = geospatial.EvaluatePlaces(point, places, in.RadiusMeters).Inside
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &ChunkResult{Results: results}
	for i := range results {
		switch {
		case !valid[i]:
			res.Invalid++
		case results[i]:
			res.Authorized++
		}
	}
	metrics.BatchPoints.WithLabelValues("authorized").Add(float64(res.Authorized))
	metrics.BatchPoints.WithLabelValues("invalid").Add(float64(res.Invalid))
	metrics.BatchPoints.WithLabelValues("denied").Add(float64(len(results) - res.Authorized - res.Invalid))
	return res, nil
}

// PublishSummary announces a finished batch.
func (a *BatchActivities) PublishSummary(ctx context.Context, summary *domain.BatchSummary) error {
	if a.Publisher == nil {
		return nil
	}
	return a.Publisher.PublishBatchSummary(ctx, summary)
}
