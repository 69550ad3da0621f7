package http

import (
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/geoguard/internal/adapters/postgres"
	"github.com/samirrijal/geoguard/internal/adapters/valkey"
	"github.com/samirrijal/geoguard/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Zones         *usecases.ZoneService
	Authorization *usecases.AuthorizationService
	// Precision is the default number of decimals for normalized coordinates.
	Precision int
	// RateLimit is the number of requests allowed per minute per IP; 0 uses the default.
	RateLimit int
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}
