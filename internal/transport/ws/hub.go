// Package ws fans committed session events out to subscribed clients.
// Publish-only and at-most-once: a slow subscriber gets dropped messages,
// never a stalled server, and clients resynchronize from the session
// snapshot endpoint.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"semantra.io/internal/protocol"
)

type subscriber struct {
	out chan []byte
}

type Hub struct {
	log      *log.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

// Publish sends every event to every subscriber of the session. Non-blocking:
// full subscriber queues drop.
func (h *Hub) Publish(code string, events []protocol.Event) {
	if len(events) == 0 {
		return
	}
	payloads := make([][]byte, 0, len(events))
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			h.log.Printf("ws: marshal event %s: %v", ev.Type, err)
			continue
		}
		payloads = append(payloads, b)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[code] {
		for _, b := range payloads {
			select {
			case sub.out <- b:
			default:
				// Subscriber is behind; at-most-once delivery allows the drop.
			}
		}
	}
}

// Subscribers reports the current subscriber count for a session.
func (h *Hub) Subscribers(code string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[code])
}

// HandleSubscribe upgrades the request and streams the session's events
// until the client goes away.
func (h *Hub) HandleSubscribe(rw http.ResponseWriter, r *http.Request, code string) {
	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := &subscriber{out: make(chan []byte, 64)}
	h.attach(code, sub)

	done := make(chan struct{})

	// Writer: drain the queue onto the socket.
	go func() {
		defer close(done)
		for b := range sub.out {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}()

	// Reader: subscribers send nothing meaningful; the loop only notices
	// disconnects and keeps pings flowing.
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	})
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	// Detach before closing the queue so no Publish can race the close.
	h.detach(code, sub)
	close(sub.out)
	<-done
}

func (h *Hub) attach(code string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[code]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[code] = set
	}
	set[sub] = struct{}{}
}

func (h *Hub) detach(code string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[code]
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, code)
	}
}
