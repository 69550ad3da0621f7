package domain

import (
	"encoding/json"
	"time"
)

// ZoneSet is a named collection of authorized places (e.g. the sites an
// employee may clock in from).
type ZoneSet struct {
	ID                  string    `json:"id"`
	Slug                string    `json:"slug"`
	Name                string    `json:"name"`
	DefaultRadiusMeters float64   `json:"default_radius_meters"`
	CreatedAt           time.Time `json:"created_at"`
}

// Zone is a single authorized place inside a zone set. Geometry is kept in
// its external GeoJSON form and only decoded at evaluation time.
type Zone struct {
	ID           string          `json:"id"`
	ZoneSetID    string          `json:"zone_set_id"`
	Key          string          `json:"key"`
	Name         string          `json:"name"`
	Geometry     json.RawMessage `json:"geometry"`
	RadiusMeters *float64        `json:"radius_meters,omitempty"` // point zones only
	CreatedAt    time.Time       `json:"created_at"`
}

// Decision is the outcome of one authorization check.
type Decision struct {
	ID            string    `json:"id,omitempty"`
	ZoneSet       string    `json:"zone_set,omitempty"`
	Point         GeoPoint  `json:"point"`
	RadiusMeters  float64   `json:"radius_meters"`
	Authorized    bool      `json:"authorized"`
	MatchedZoneID string    `json:"matched_zone_id,omitempty"`
	Evaluated     int       `json:"evaluated"`
	Skipped       int       `json:"skipped"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

// PositionReport is a subject location received from the position stream.
type PositionReport struct {
	SubjectID string    `json:"subject_id"`
	ZoneSet   string    `json:"zone_set"`
	Location  GeoPoint  `json:"location"`
	Time      time.Time `json:"time"`
}

// Presence is the last known inside/outside state of a subject.
type Presence struct {
	SubjectID string    `json:"subject_id"`
	ZoneSet   string    `json:"zone_set"`
	Inside    bool      `json:"inside"`
	ZoneID    string    `json:"zone_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PresenceTransition names a change of presence.
type PresenceTransition string

const (
	TransitionEnter PresenceTransition = "enter"
	TransitionExit  PresenceTransition = "exit"
)

// PresenceEvent is published when a subject enters or leaves its zone set.
type PresenceEvent struct {
	SubjectID  string             `json:"subject_id"`
	ZoneSet    string             `json:"zone_set"`
	Transition PresenceTransition `json:"transition"`
	ZoneID     string             `json:"zone_id,omitempty"`
	Location   GeoPoint           `json:"location"`
	Time       time.Time          `json:"time"`
}

// BatchSummary aggregates a bulk point check.
type BatchSummary struct {
	ZoneSet    string    `json:"zone_set"`
	Total      int       `json:"total"`
	Authorized int       `json:"authorized"`
	Denied     int       `json:"denied"`
	Invalid    int       `json:"invalid"`
	Results    []bool    `json:"results"`
	FinishedAt time.Time `json:"finished_at"`
}
