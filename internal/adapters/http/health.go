package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoguard/internal/core/domain"
	"github.com/samirrijal/geoguard/internal/pkg/geospatial"
)

// Version is reported by the health endpoint; set at build time with -ldflags.
var Version = "dev"

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": Version,
		})
	}
}

var errNotConfigured = errors.New("not configured")

type readinessCheck struct {
	name     string
	required bool
	// run returns errNotConfigured when the dependency is absent.
	run func(ctx context.Context) error
}

func readinessChecks(deps *Dependencies) []readinessCheck {
	return []readinessCheck{
		{name: "database", required: true, run: func(ctx context.Context) error {
			if deps.DB == nil {
				return errNotConfigured
			}
			return deps.DB.Pool.Ping(ctx)
		}},
		{name: "nats", run: func(ctx context.Context) error {
			if deps.NATS == nil {
				return errNotConfigured
			}
			if !deps.NATS.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}},
		{name: "cache", run: func(ctx context.Context) error {
			if deps.Cache == nil {
				return errNotConfigured
			}
			return deps.Cache.Ping(ctx)
		}},
		{name: "geofence", required: true, run: func(context.Context) error {
			return geofenceSelfCheck()
		}},
	}
}

// geofenceSelfCheck evaluates a fixed square and its hole boundary.
func geofenceSelfCheck() error {
	square := `{"type":"Polygon","coordinates":[[[0,0],[0,2],[2,2],[2,0]],[[0.5,0.5],[0.5,1.5],[1.5,1.5],[1.5,0.5]]]}`
	places := []any{square}
	if !geospatial.IsPointInsidePlaces(domain.GeoPoint{Lat: 0.25, Lon: 0.25}, places, 0) {
		return errors.New("point inside shell rejected")
	}
	if geospatial.IsPointInsidePlaces(domain.GeoPoint{Lat: 1, Lon: 0.5}, places, 0) {
		return errors.New("hole boundary accepted")
	}
	return nil
}

// ReadyHandler runs every readiness check. Required checks must pass;
// optional ones only fail readiness when configured and unhealthy.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	checks := readinessChecks(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		ready := true
		for _, chk := range checks {
			err := chk.run(ctx)
			switch {
			case err == nil:
				results[chk.name] = "ok"
			case errors.Is(err, errNotConfigured):
				results[chk.name] = err.Error()
				if chk.required {
					ready = false
				}
			default:
				results[chk.name] = "error: " + err.Error()
				ready = false
			}
		}

		if !ready {
			LoggerFromCtx(c.UserContext()).Warn("readiness check failed", "checks", results)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": results,
			})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": results})
	}
}
