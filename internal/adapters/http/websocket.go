package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/geoguard/internal/adapters/nats"
	"github.com/samirrijal/geoguard/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action  string `json:"action"`   // "subscribe" | "unsubscribe"
	ZoneSet string `json:"zone_set"` // zone set slug filter ("" = all)
	Channel string `json:"channel"`  // "decisions" | "presence" | "zones" (default: presence)
}

// channelSubject maps a feed channel and optional zone set to a NATS subject.
func channelSubject(channel, zoneSet string) (string, error) {
	if channel == "" {
		channel = "presence"
	}
	scope := ">"
	if zoneSet != "" {
		scope = zoneSet
	}

	switch channel {
	case "decisions":
		return natsadapter.SubjectDecisions + scope, nil
	case "presence":
		if zoneSet != "" {
			return natsadapter.SubjectPresence + zoneSet + ".>", nil
		}
		return natsadapter.SubjectPresence + ">", nil
	case "zones":
		if zoneSet != "" {
			return natsadapter.SubjectZones + zoneSet + ".changed", nil
		}
		return natsadapter.SubjectZones + ">", nil
	default:
		return "", fmt.Errorf("unknown channel: %s", channel)
	}
}

// WebSocketHandler returns a handler that relays geofence events from NATS
// to connected clients.
// Clients send JSON: {"action":"subscribe","zone_set":"offices","channel":"decisions"}
// New connections receive presence events of every zone set until they
// subscribe to something narrower.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		log := slog.With("remote", c.RemoteAddr().String())
		log.Info("ws client connected")

		if nc == nil {
			_ = c.WriteMessage(websocket.TextMessage, []byte(`{"error":"event stream unavailable"}`))
			return
		}

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription)

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		relay := func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		}

		defaultSubject, _ := channelSubject("", "")
		sub, err := nc.Subscribe(defaultSubject, relay)
		if err != nil {
			log.Error("ws default subscribe failed", "error", err)
			return
		}
		subs[defaultSubject] = sub

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject, err := channelSubject(m.Channel, m.ZoneSet)
			if err != nil {
				_ = writeJSON(map[string]string{"error": err.Error()})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, relay)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		log.Info("ws client disconnected")
	}
}
