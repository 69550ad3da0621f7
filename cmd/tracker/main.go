// Command tracker consumes subject position reports from NATS, keeps each
// subject's presence per zone set and publishes enter/exit events.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/geoguard/internal/adapters/nats"
	"github.com/samirrijal/geoguard/internal/adapters/postgres"
	"github.com/samirrijal/geoguard/internal/adapters/valkey"
	"github.com/samirrijal/geoguard/internal/core/domain"
	"github.com/samirrijal/geoguard/internal/core/ports"
	"github.com/samirrijal/geoguard/internal/core/usecases"
	"github.com/samirrijal/geoguard/internal/pkg/config"
	"github.com/samirrijal/geoguard/internal/pkg/logging"
	"github.com/samirrijal/geoguard/internal/pkg/telemetry"
)

func main() {
	replay := flag.String("replay", "", "publish position reports from a JSON lines file before consuming")
	flag.Parse()

	cfg, err := config.Load("geoguard-tracker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	var cacheSvc ports.CacheService
	if cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix); err != nil {
		slog.Warn("valkey unavailable, presence reads go to postgres", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// The publisher also creates the streams the subscriber binds to.
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	zoneSvc := usecases.NewZoneService(
		postgres.NewZoneSetRepo(db),
		postgres.NewZoneRepo(db),
		cacheSvc,
		nil, // the tracker only reads zones
		cfg.Geofence.ZoneCacheTTL,
	)
	presenceSvc := usecases.NewPresenceService(zoneSvc, postgres.NewPresenceRepo(db), cacheSvc, pub, cfg.Geofence.DefaultRadiusMeters)

	if *replay != "" {
		n, err := replayPositions(ctx, pub, *replay)
		if err != nil {
			log.Fatalf("replay: %v", err)
		}
		slog.Info("replayed positions", "file", *replay, "count", n)
	}

	err = sub.SubscribePositions(ctx, func(ctx context.Context, report *domain.PositionReport) error {
		ev, err := presenceSvc.ProcessPosition(ctx, report)
		if err != nil {
			if permanent(err) {
				slog.Warn("discarding position", "subject", report.SubjectID, "zone_set", report.ZoneSet, "error", err)
				return nil
			}
			return err
		}
		if ev != nil {
			slog.Info("presence changed",
				"subject", ev.SubjectID, "zone_set", ev.ZoneSet,
				"transition", ev.Transition, "zone_id", ev.ZoneID)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe positions: %v", err)
	}

	// Zone edits made through another API instance must drop our snapshot.
	err = sub.SubscribeZoneChanges(ctx, func(ctx context.Context, zoneSet string) error {
		zoneSvc.Invalidate(ctx, zoneSet)
		slog.Debug("zone snapshot invalidated", "zone_set", zoneSet)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe zone changes: %v", err)
	}

	slog.Info("tracker running")
	<-ctx.Done()
	slog.Info("tracker stopping")
}

// permanent reports whether redelivering the report could never succeed.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrInvalidSubject) ||
		errors.Is(err, domain.ErrInvalidCoordinates) ||
		errors.Is(err, domain.ErrZoneSetNotFound)
}

func replayPositions(ctx context.Context, pub *natsadapter.Publisher, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var report domain.PositionReport
		if err := json.Unmarshal(line, &report); err != nil {
			slog.Warn("skipping malformed line", "line", n+1, "error", err)
			continue
		}
		if report.Time.IsZero() {
			report.Time = time.Now().UTC()
		}
		if err := pub.PublishPosition(ctx, &report); err != nil {
			return n, err
		}
		n++
	}
	return n, scanner.Err()
}
