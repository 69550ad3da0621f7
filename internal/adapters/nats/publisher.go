package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/geoguard/internal/core/domain"
)

// Subjects. Wildcards are bound to JetStream streams in NewPublisher.
const (
	SubjectDecisions    = "geoguard.decisions."    // + zone set
	SubjectPresence     = "geoguard.presence."     // + zone set + "." + subject
	SubjectZones        = "geoguard.zones."        // + zone set + ".changed"
	SubjectPositions    = "geoguard.positions."    // + zone set
	SubjectBatchSummary = "geoguard.batch.summary" // core NATS, no stream
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "GEOGUARD_POSITIONS",
			Subjects:  []string{SubjectPositions + ">"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "GEOGUARD_DECISIONS",
			Subjects:  []string{SubjectDecisions + ">"},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "GEOGUARD_PRESENCE",
			Subjects:  []string{SubjectPresence + ">"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "GEOGUARD_ZONES",
			Subjects:  []string{SubjectZones + ">"},
			Retention: nats.InterestPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.MemoryStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist — try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishDecision(ctx context.Context, d *domain.Decision) error {
	return p.publishJSON(ctx, SubjectDecisions+d.ZoneSet, d)
}

func (p *Publisher) PublishPresence(ctx context.Context, event *domain.PresenceEvent) error {
	return p.publishJSON(ctx, SubjectPresence+event.ZoneSet+"."+event.SubjectID, event)
}

func (p *Publisher) PublishZoneChanged(ctx context.Context, zoneSet string) error {
	_, err := p.js.Publish(SubjectZones+zoneSet+".changed", []byte(zoneSet), nats.Context(ctx))
	return err
}

// PublishBatchSummary uses core NATS; summaries are fire-and-forget.
func (p *Publisher) PublishBatchSummary(ctx context.Context, summary *domain.BatchSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectBatchSummary, data)
}

// PublishPosition feeds a position report into the tracker's stream.
func (p *Publisher) PublishPosition(ctx context.Context, report *domain.PositionReport) error {
	return p.publishJSON(ctx, SubjectPositions+report.ZoneSet, report)
}

func (p *Publisher) publishJSON(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
