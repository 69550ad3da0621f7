package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/geoguard/internal/pkg/metrics"
)

const (
	defaultRateLimit = 120
	requestTimeout   = 15 * time.Second
)

// checkSunset is when the query-string check endpoint goes away.
var checkSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	rate := deps.RateLimit
	if rate <= 0 {
		rate = defaultRateLimit
	}
	app.Use(limiter.New(limiter.Config{
		Max:        rate,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/v1/check", SunsetDate: checkSunset, Alternative: "/v1/authorize"},
	}))

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	with := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, requestTimeout)
	}

	// Geofence checks
	v1.Post("/authorize", with(AuthorizeHandler(deps)))
	v1.Get("/check", with(CheckHandler(deps)))
	v1.Get("/distance", with(DistanceHandler(deps)))
	v1.Get("/coordinates/normalize", with(NormalizeCoordinatesHandler(deps)))

	// Zone management
	v1.Get("/zone-sets", with(ListZoneSetsHandler(deps)))
	v1.Get("/zone-sets/:slug", with(GetZoneSetHandler(deps)))
	v1.Get("/zone-sets/:slug/zones", with(ListZonesHandler(deps)))
	v1.Put("/zone-sets/:slug/zones/:zone", with(PutZoneHandler(deps)))
	v1.Delete("/zone-sets/:slug/zones/:zone", with(DeleteZoneHandler(deps)))
	v1.Get("/zone-sets/:slug/decisions", with(ListDecisionsHandler(deps)))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
