package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/geoguard/internal/core/domain"
	"github.com/samirrijal/geoguard/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	zoneSetType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ZoneSet",
		Fields: graphql.Fields{
			"id":                    &graphql.Field{Type: graphql.String},
			"slug":                  &graphql.Field{Type: graphql.String},
			"name":                  &graphql.Field{Type: graphql.String},
			"default_radius_meters": &graphql.Field{Type: graphql.Float},
			"created_at":            &graphql.Field{Type: graphql.DateTime},
		},
	})

	zoneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Zone",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"zone_set_id": &graphql.Field{Type: graphql.String},
			"key":         &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"radius_meters": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if z, ok := p.Source.(domain.Zone); ok && z.RadiusMeters != nil {
						return *z.RadiusMeters, nil
					}
					return nil, nil
				},
			},
			// GeoJSON geometry, serialized
			"geometry": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if z, ok := p.Source.(domain.Zone); ok {
						return string(z.Geometry), nil
					}
					return nil, nil
				},
			},
		},
	})

	decisionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Decision",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.String},
			"zone_set":        &graphql.Field{Type: graphql.String},
			"point":           &graphql.Field{Type: geoPointType},
			"radius_meters":   &graphql.Field{Type: graphql.Float},
			"authorized":      &graphql.Field{Type: graphql.Boolean},
			"matched_zone_id": &graphql.Field{Type: graphql.String},
			"evaluated":       &graphql.Field{Type: graphql.Int},
			"skipped":         &graphql.Field{Type: graphql.Int},
			"evaluated_at":    &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"zoneSets": &graphql.Field{
				Type:        graphql.NewList(zoneSetType),
				Description: "List all zone sets",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Zones.ListZoneSets(p.Context)
				},
			},
			"zoneSet": &graphql.Field{
				Type:        zoneSetType,
				Description: "Get a zone set by slug",
				Args: graphql.FieldConfigArgument{
					"slug": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Zones.GetZoneSet(p.Context, p.Args["slug"].(string))
				},
			},
			"zones": &graphql.Field{
				Type:        graphql.NewList(zoneType),
				Description: "Zones of a zone set",
				Args: graphql.FieldConfigArgument{
					"zone_set": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Zones.ListZones(p.Context, p.Args["zone_set"].(string))
				},
			},
			"distance": &graphql.Field{
				Type:        graphql.Float,
				Description: "Great-circle distance in meters between two \"lat,lon\" coordinates",
				Args: graphql.FieldConfigArgument{
					"from": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"to":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Authorization.Distance(p.Context, p.Args["from"].(string), p.Args["to"].(string))
				},
			},
			"authorize": &graphql.Field{
				Type:        decisionType,
				Description: "Check a location against a zone set",
				Args: graphql.FieldConfigArgument{
					"coordinates":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"zone_set":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"radius_meters": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in := usecases.AuthorizeInput{
						Coordinates: p.Args["coordinates"].(string),
						ZoneSet:     p.Args["zone_set"].(string),
					}
					if r, ok := p.Args["radius_meters"].(float64); ok {
						in.RadiusMeters = &r
					}
					return deps.Authorization.Authorize(p.Context, in)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
