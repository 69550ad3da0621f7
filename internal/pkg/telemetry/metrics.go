package telemetry

// Span names used for instrumentation.
const (
	SpanAuthorize       = "geofence.authorize"
	SpanProcessPosition = "presence.process_position"
	SpanEvaluateChunk   = "batch.evaluate_chunk"
)

// Span attribute keys.
const (
	AttrZoneSet    = "geoguard.zone_set"
	AttrPlaces     = "geoguard.places"
	AttrSkipped    = "geoguard.places_skipped"
	AttrAuthorized = "geoguard.authorized"
	AttrSubject    = "geoguard.subject_id"
	AttrChunkSize  = "geoguard.chunk_size"
)
