package http

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoguard/internal/core/domain"
	"github.com/samirrijal/geoguard/internal/core/usecases"
	"github.com/samirrijal/geoguard/internal/pkg/geospatial"
)

// AuthorizeRequest is the body of POST /v1/authorize. Either coordinates or
// point must be given, and either zone_set or places.
type AuthorizeRequest struct {
	Coordinates  string            `json:"coordinates"`
	Point        *domain.GeoPoint  `json:"point"`
	ZoneSet      string            `json:"zone_set"`
	Places       []json.RawMessage `json:"places"`
	RadiusMeters *float64          `json:"radius_meters"`
}

func (r AuthorizeRequest) input() usecases.AuthorizeInput {
	in := usecases.AuthorizeInput{
		Coordinates:  r.Coordinates,
		Point:        r.Point,
		ZoneSet:      r.ZoneSet,
		RadiusMeters: r.RadiusMeters,
	}
	for _, p := range r.Places {
		in.Places = append(in.Places, placePayload(p))
	}
	return in
}

// placePayload accepts a geometry either as a JSON object or as a JSON
// string holding the object.
func placePayload(raw json.RawMessage) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return raw
}

// AuthorizeHandler decides whether a location is inside authorized places.
func AuthorizeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req AuthorizeRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		decision, err := deps.Authorization.Authorize(c.UserContext(), req.input())
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(decision)
	}
}

// CheckHandler is the query-string form of AuthorizeHandler kept for older
// clients: /v1/check?coordinates=lat,lon&zone_set=slug&radius=meters.
func CheckHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := usecases.AuthorizeInput{
			Coordinates: c.Query("coordinates"),
			ZoneSet:     c.Query("zone_set"),
		}
		if raw := c.Query("radius"); raw != "" {
			r := c.QueryFloat("radius", -1)
			in.RadiusMeters = &r
		}

		decision, err := deps.Authorization.Authorize(c.UserContext(), in)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(fiber.Map{"authorized": decision.Authorized})
	}
}

// DistanceHandler returns the great-circle distance between two coordinates.
func DistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to := c.Query("from"), c.Query("to")
		if from == "" || to == "" {
			return errBadRequest(c, "from and to query parameters are required")
		}

		meters, err := deps.Authorization.Distance(c.UserContext(), from, to)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"from": from, "to": to, "meters": meters})
	}
}

// NormalizeCoordinatesHandler parses a "lat,lon" string and returns it in
// canonical form.
func NormalizeCoordinatesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("q")
		if raw == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		precision := c.QueryInt("precision", deps.Precision)
		if precision < 0 || precision > 15 {
			return errBadRequest(c, "precision must be between 0 and 15")
		}

		p, ok := geospatial.ParseCoordinate(raw)
		if !ok {
			return errBadRequest(c, domain.ErrInvalidCoordinates.Error())
		}
		return c.JSON(fiber.Map{
			"lat":       p.Lat,
			"lon":       p.Lon,
			"formatted": geospatial.FormatCoordinate(p.Lat, p.Lon, precision),
		})
	}
}

// ListZoneSetsHandler returns all zone sets.
func ListZoneSetsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sets, err := deps.Zones.ListZoneSets(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		if sets == nil {
			sets = []domain.ZoneSet{}
		}
		return c.JSON(sets)
	}
}

// GetZoneSetHandler returns a zone set by slug.
func GetZoneSetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		set, err := deps.Zones.GetZoneSet(c.UserContext(), c.Params("slug"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(set)
	}
}

// ListZonesHandler returns the zones of a zone set, paginated.
func ListZonesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zones, err := deps.Zones.ListZones(c.UserContext(), c.Params("slug"))
		if err != nil {
			return errFromDomain(c, err)
		}

		page, pg := paginate(c, zones, 100, 500)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

type zoneRequest struct {
	Name         string          `json:"name"`
	Geometry     json.RawMessage `json:"geometry"`
	RadiusMeters *float64        `json:"radius_meters"`
}

// PutZoneHandler creates or replaces the zone with the given key.
func PutZoneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req zoneRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		zone := &domain.Zone{
			Key:          strings.TrimSpace(c.Params("zone")),
			Name:         req.Name,
			Geometry:     req.Geometry,
			RadiusMeters: req.RadiusMeters,
		}
		if err := deps.Zones.UpsertZone(c.UserContext(), c.Params("slug"), zone); err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(zone)
	}
}

// DeleteZoneHandler removes a zone by ID.
func DeleteZoneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Zones.DeleteZone(c.UserContext(), c.Params("slug"), c.Params("zone")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListDecisionsHandler returns the latest audited decisions of a zone set.
func ListDecisionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decisions, err := deps.Authorization.RecentDecisions(c.UserContext(), c.Params("slug"), c.QueryInt("limit", 20))
		if err != nil {
			return errFromDomain(c, err)
		}
		if decisions == nil {
			decisions = []domain.Decision{}
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(decisions)
	}
}
