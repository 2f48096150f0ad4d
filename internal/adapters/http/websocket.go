package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/placeshare/internal/adapters/nats"
	"github.com/samirrijal/placeshare/internal/core/domain"
	"github.com/samirrijal/placeshare/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to place events.
type wsMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	User   string `json:"user"`   // creator id filter, "" = all users
	Type   string `json:"type"`   // "created" | "updated" | "deleted", "" = all
}

// eventSubject builds the NATS subject for a client filter. The user
// filter must be a place owner id so it cannot add subject tokens.
// Subjects are places.events.<type>.<creator>.
func eventSubject(m wsMessage) (string, bool) {
	typ := "*"
	switch m.Type {
	case "":
	case domain.PlaceCreated, domain.PlaceUpdated, domain.PlaceDeleted:
		typ = m.Type
	default:
		return "", false
	}
	user := "*"
	if m.User != "" {
		id, err := uuid.Parse(m.User)
		if err != nil {
			return "", false
		}
		user = id.String()
	}
	return natsadapter.SubjectPrefix + "." + typ + "." + user, true
}

// WebSocketHandler relays place events from NATS to connected clients.
// Every client starts subscribed to all events; it may narrow or widen with
// {"action":"subscribe","user":"<id>","type":"created"}.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription)

		writeJSON := func(v any) error {
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

		defaultSubject := natsadapter.SubjectPrefix + ".>"
		sub, err := nc.Subscribe(defaultSubject, relay)
		if err != nil {
			slog.Error("ws default subscribe failed", "error", err)
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
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			subject, ok := eventSubject(m)
			if !ok {
				_ = writeJSON(map[string]string{"error": "unknown event type: " + m.Type})
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
				// Unsubscribing with no filter drops the default firehose.
				if m.User == "" && m.Type == "" {
					subject = defaultSubject
				}
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
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
