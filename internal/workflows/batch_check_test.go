package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/geoguard/internal/core/domain"
	"github.com/samirrijal/geoguard/internal/core/usecases"
)

type fakeZones struct {
	snap *usecases.ZoneSnapshot
}

func (f fakeZones) Snapshot(ctx context.Context, slug string) (*usecases.ZoneSnapshot, error) {
	if f.snap == nil || f.snap.Set.Slug != slug {
		return nil, domain.ErrZoneSetNotFound
	}
	return f.snap, nil
}

type recordingPublisher struct {
	summaries []domain.BatchSummary
}

func (p *recordingPublisher) PublishDecision(context.Context, *domain.Decision) error { return nil }
func (p *recordingPublisher) PublishPresence(context.Context, *domain.PresenceEvent) error {
	return nil
}
func (p *recordingPublisher) PublishZoneChanged(context.Context, string) error { return nil }

func (p *recordingPublisher) PublishBatchSummary(ctx context.Context, s *domain.BatchSummary) error {
	p.summaries = append(p.summaries, *s)
	return nil
}

func officeZones() fakeZones {
	return fakeZones{snap: &usecases.ZoneSnapshot{
		Set: domain.ZoneSet{ID: "set-1", Slug: "offices"},
		Zones: []domain.Zone{
			{ID: "z-bilbao", Geometry: json.RawMessage(`{"type":"Polygon","coordinates":[[[-2.94,43.26],[-2.93,43.26],[-2.93,43.27],[-2.94,43.27]]]}`)},
			{ID: "z-paris", Geometry: json.RawMessage(`{"type":"Point","coordinates":[2.2945,48.8584]}`)},
			{ID: "z-broken", Geometry: json.RawMessage(`{"type":"Point"}`)},
		},
	}}
}

func TestBatchCheckWorkflow(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	pub := &recordingPublisher{}
	env.RegisterWorkflow(BatchCheckWorkflow)
	env.RegisterActivity(&BatchActivities{Zones: officeZones(), Publisher: pub, Concurrency: 2})

	r := 12.0
	env.ExecuteWorkflow(BatchCheckWorkflow, BatchCheckInput{
		ZoneSet:      "offices",
		Points:       []string{"43.263,-2.935", "48.8585,2.2945", "10,10", "junk", "48.8585;2.2945"},
		RadiusMeters: &r,
		ChunkSize:    2,
	})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}

	var summary domain.BatchSummary
	if err := env.GetWorkflowResult(&summary); err != nil {
		t.Fatalf("result: %v", err)
	}
	if summary.Total != 5 || summary.Authorized != 3 || summary.Denied != 1 || summary.Invalid != 1 {
		t.Errorf("unexpected counts %+v", summary)
	}
	want := []bool{true, true, false, false, true}
	if len(summary.Results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(summary.Results))
	}
	for i := range want {
		if summary.Results[i] != want[i] {
			t.Errorf("result %d = %v, want %v", i, summary.Results[i], want[i])
		}
	}
	if len(pub.summaries) != 1 {
		t.Errorf("expected summary published once, got %d", len(pub.summaries))
	}
}

func TestBatchCheckWorkflow_UnknownZoneSet(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	env.RegisterWorkflow(BatchCheckWorkflow)
	env.RegisterActivity(&BatchActivities{Zones: officeZones()})

	env.ExecuteWorkflow(BatchCheckWorkflow, BatchCheckInput{ZoneSet: "missing", Points: []string{"0,0"}})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if env.GetWorkflowError() == nil {
		t.Error("expected workflow to fail for an unknown zone set")
	}
}

func TestEvaluateChunk(t *testing.T) {
	acts := &BatchActivities{Zones: officeZones()}
	places, err := acts.LoadZones(context.Background(), "offices")
	if err != nil {
		t.Fatalf("load zones: %v", err)
	}

	res, err := acts.EvaluateChunk(context.Background(), EvaluateChunkInput{
		Points:       []string{"43.265,-2.935", "91,0", "48.8584,2.2945", "0,0"},
		Places:       places.Places,
		RadiusMeters: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Authorized != 2 || res.Invalid != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Results[1] {
		t.Error("invalid point must not be authorized")
	}
}

func TestLoadZones_DefaultRadius(t *testing.T) {
	zones := officeZones()
	acts := &BatchActivities{Zones: zones, DefaultRadiusMeters: 30}

	got, err := acts.LoadZones(context.Background(), "offices")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DefaultRadiusMeters != 30 || len(got.Places) != 3 {
		t.Errorf("unexpected payload %+v", got)
	}

	zones.snap.Set.DefaultRadiusMeters = 100
	got, _ = acts.LoadZones(context.Background(), "offices")
	if got.DefaultRadiusMeters != 100 {
		t.Errorf("zone set radius should win over the configured default, got %v", got.DefaultRadiusMeters)
	}

	if _, err := acts.LoadZones(context.Background(), "missing"); !errors.Is(err, domain.ErrZoneSetNotFound) {
		t.Errorf("expected ErrZoneSetNotFound, got %v", err)
	}
}
