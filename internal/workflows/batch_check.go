package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/geoguard/internal/core/domain"
)

// TaskQueue is the default queue the batch worker polls.
const TaskQueue = "geoguard-batch"

const defaultChunkSize = 250

// BatchCheckInput is the input for the batch check workflow. Points are
// "lat,lon" strings; an unparsable point is counted as invalid.
type BatchCheckInput struct {
	ZoneSet      string
	Points       []string
	RadiusMeters *float64
	ChunkSize    int
}

// BatchCheckWorkflow evaluates many points against one zone set. Zones are
// loaded once, chunks are evaluated in parallel activities and the summary
// is published when all chunks are done.
func BatchCheckWorkflow(ctx workflow.Context, input BatchCheckInput) (*domain.BatchSummary, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting batch check", "zoneSet", input.ZoneSet, "points", len(input.Points))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var zones ZoneSetPlaces
	if err := workflow.ExecuteActivity(ctx, "LoadZones", input.ZoneSet).Get(ctx, &zones); err != nil {
		return nil, err
	}

	radius := zones.DefaultRadiusMeters
	if input.RadiusMeters != nil {
		radius = *input.RadiusMeters
	}

	size := input.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}

	var futures []workflow.Future
	for start := 0; start < len(input.Points); start += size {
		end := min(start+size, len(input.Points))
		futures = append(futures, workflow.ExecuteActivity(ctx, "EvaluateChunk", EvaluateChunkInput{
			Points:       input.Points[start:end],
			Places:       zones.Places,
			RadiusMeters: radius,
		}))
	}

	summary := &domain.BatchSummary{
		ZoneSet: input.ZoneSet,
		Total:   len(input.Points),
		Results: make([]bool, 0, len(input.Points)),
	}
	for _, f := range futures {
		var res ChunkResult
		if err := f.Get(ctx, &res); err != nil {
			return nil, err
		}
		summary.Results = append(summary.Results, res.Results...)
		summary.Invalid += res.Invalid
		summary.Authorized += res.Authorized
	}
	summary.Denied = summary.Total - summary.Authorized - summary.Invalid
	summary.FinishedAt = workflow.Now(ctx)

	if err := workflow.ExecuteActivity(ctx, "PublishSummary", summary).Get(ctx, nil); err != nil {
		logger.Warn("publishing batch summary failed", "error", err)
	}

	logger.Info("Batch check finished", "authorized", summary.Authorized, "denied", summary.Denied, "invalid", summary.Invalid)
	return summary, nil
}
