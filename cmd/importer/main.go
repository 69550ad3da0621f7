// Command importer loads zone sets from GeoJSON FeatureCollections listed in
// a manifest:
//
//	{"zone_sets":[{"slug":"offices","name":"Offices","default_radius_meters":25,"source":"zones/offices.geojson"}]}
//
// Sources may be local paths or http(s) URLs. Each feature becomes a zone;
// its "key", "name" and "radius_meters" properties are used when present.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	natsadapter "github.com/samirrijal/geoguard/internal/adapters/nats"
	"github.com/samirrijal/geoguard/internal/adapters/postgres"
	"github.com/samirrijal/geoguard/internal/core/domain"
	"github.com/samirrijal/geoguard/internal/core/ports"
	"github.com/samirrijal/geoguard/internal/core/usecases"
	"github.com/samirrijal/geoguard/internal/pkg/config"
	"github.com/samirrijal/geoguard/internal/pkg/logging"
)

// Manifest lists the zone sets to import.
type Manifest struct {
	ZoneSets []ZoneSetEntry `json:"zone_sets"`
}

type ZoneSetEntry struct {
	Slug                string  `json:"slug"`
	Name                string  `json:"name"`
	DefaultRadiusMeters float64 `json:"default_radius_meters"`
	Source              string  `json:"source"`
}

func main() {
	only := flag.String("only", "", "comma-separated zone set slugs to import (default: all)")
	dryRun := flag.Bool("dry-run", false, "parse and validate without writing")
	flag.Parse()

	cfg, err := config.Load("geoguard-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	manifestPath := "manifest.json"
	if flag.NArg() > 0 {
		manifestPath = flag.Arg(0)
	}
	manifest, err := readManifest(manifestPath)
	if err != nil {
		log.Fatalf("manifest: %v", err)
	}

	filter := map[string]bool{}
	if *only != "" {
		for _, s := range strings.Split(*only, ",") {
			filter[strings.TrimSpace(s)] = true
		}
	}

	ctx := context.Background()
	var zoneSvc *usecases.ZoneService
	if !*dryRun {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()

		// Running trackers and APIs drop their cached snapshots on these events.
		var publisher ports.EventPublisher
		if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
			slog.Warn("nats unavailable, caches expire on their own", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}
		zoneSvc = usecases.NewZoneService(postgres.NewZoneSetRepo(db), postgres.NewZoneRepo(db), nil, publisher, 0)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, entry := range manifest.ZoneSets {
		if len(filter) > 0 && !filter[entry.Slug] {
			continue
		}
		g.Go(func() error {
			if err := importZoneSet(gctx, client, zoneSvc, entry); err != nil {
				slog.Error("import failed", "zone_set", entry.Slug, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	slog.Info("import complete")
}

func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return &m, nil
}

// importZoneSet stores the zone set and its zones. zoneSvc is nil in dry-run mode.
func importZoneSet(ctx context.Context, client *http.Client, zoneSvc *usecases.ZoneService, entry ZoneSetEntry) error {
	data, err := readSource(ctx, client, entry.Source)
	if err != nil {
		return err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("parse geojson: %w", err)
	}

	zones, rejected := zonesFromFeatures(fc)
	for _, r := range rejected {
		slog.Warn("skipping feature", "zone_set", entry.Slug, "index", r.Index, "key", r.Key, "reason", r.Reason)
	}
	if zoneSvc == nil {
		slog.Info("validated", "zone_set", entry.Slug, "zones", len(zones), "rejected", len(rejected))
		return nil
	}

	name := entry.Name
	if name == "" {
		name = entry.Slug
	}
	set := &domain.ZoneSet{Slug: entry.Slug, Name: name, DefaultRadiusMeters: entry.DefaultRadiusMeters}
	if err := zoneSvc.UpsertZoneSet(ctx, set); err != nil {
		return fmt.Errorf("zone set: %w", err)
	}
	if err := zoneSvc.ImportZones(ctx, entry.Slug, zones); err != nil {
		return err
	}

	slog.Info("imported", "zone_set", entry.Slug, "zones", len(zones), "rejected", len(rejected))
	return nil
}

func readSource(ctx context.Context, client *http.Client, src string) ([]byte, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.ReadFile(src)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, src)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 64<<20))
}
