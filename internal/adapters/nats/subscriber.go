package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/geoguard/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribePositions consumes position reports. Reports that cannot be
// decoded are terminated instead of redelivered.
func (s *Subscriber) SubscribePositions(ctx context.Context, handler func(ctx context.Context, report *domain.PositionReport) error) error {
	sub, err := s.js.Subscribe(SubjectPositions+">", func(msg *nats.Msg) {
		var report domain.PositionReport
		if err := json.Unmarshal(msg.Data, &report); err != nil {
			slog.Warn("dropping malformed position", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if report.ZoneSet == "" {
			report.ZoneSet = strings.TrimPrefix(msg.Subject, SubjectPositions)
		}
		if err := handler(ctx, &report); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("presence-tracker"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// SubscribeZoneChanges delivers the slug of every changed zone set.
func (s *Subscriber) SubscribeZoneChanges(ctx context.Context, handler func(ctx context.Context, zoneSet string) error) error {
	sub, err := s.js.Subscribe(SubjectZones+">", func(msg *nats.Msg) {
		if err := handler(ctx, string(msg.Data)); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
