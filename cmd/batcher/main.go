// Command batcher runs the Temporal worker for bulk point checks, or submits
// a batch and waits for its summary:
//
//	batcher worker
//	batcher submit -zone-set offices -points points.txt [-radius 25]
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/geoguard/internal/adapters/nats"
	"github.com/samirrijal/geoguard/internal/adapters/postgres"
	"github.com/samirrijal/geoguard/internal/core/domain"
	"github.com/samirrijal/geoguard/internal/core/ports"
	"github.com/samirrijal/geoguard/internal/core/usecases"
	"github.com/samirrijal/geoguard/internal/pkg/config"
	"github.com/samirrijal/geoguard/internal/pkg/logging"
	"github.com/samirrijal/geoguard/internal/workflows"
)

func main() {
	cfg, err := config.Load("geoguard-batcher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	cmd := "worker"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "worker":
		runWorker(c, cfg)
	case "submit":
		if err := submit(c, cfg, args); err != nil {
			log.Fatalf("submit: %v", err)
		}
	default:
		log.Fatalf("unknown command %q (want worker or submit)", cmd)
	}
}

func runWorker(c client.Client, cfg *config.Config) {
	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, summaries will not be published", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	zoneSvc := usecases.NewZoneService(postgres.NewZoneSetRepo(db), postgres.NewZoneRepo(db), nil, nil, 0)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.BatchCheckWorkflow)
	w.RegisterActivity(&workflows.BatchActivities{
		Zones:               zoneSvc,
		Publisher:           publisher,
		DefaultRadiusMeters: cfg.Geofence.DefaultRadiusMeters,
	})

	slog.Info("batch worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func submit(c client.Client, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	zoneSet := fs.String("zone-set", "", "zone set slug")
	pointsFile := fs.String("points", "", "file with one \"lat,lon\" per line")
	radius := fs.Float64("radius", -1, "tolerance radius in meters for point zones (default: zone set or configured)")
	timeout := fs.Duration("timeout", 10*time.Minute, "how long to wait for the result")
	_ = fs.Parse(args)

	if *zoneSet == "" || *pointsFile == "" {
		return fmt.Errorf("-zone-set and -points are required")
	}
	points, err := readPoints(*pointsFile)
	if err != nil {
		return err
	}

	input := workflows.BatchCheckInput{
		ZoneSet:   *zoneSet,
		Points:    points,
		ChunkSize: cfg.Geofence.BatchChunkSize,
	}
	if *radius >= 0 {
		input.RadiusMeters = radius
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        fmt.Sprintf("batch-%s-%d", *zoneSet, time.Now().UnixNano()),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.BatchCheckWorkflow, input)
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	slog.Info("batch submitted", "workflow_id", run.GetID(), "points", len(points))

	var summary domain.BatchSummary
	if err := run.Get(ctx, &summary); err != nil {
		return fmt.Errorf("workflow result: %w", err)
	}
	return json.NewEncoder(os.Stdout).Encode(summary)
}

func readPoints(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var points []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		points = append(points, line)
	}
	return points, scanner.Err()
}
