package httpserver

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"example.com/behavior-sim/internal/sim"
)

// Broker fans engine decisions out to event-stream and websocket clients.
// Each client may follow a single actor. A client that falls behind loses
// decisions instead of stalling the engine's tick.
type Broker struct {
	mu      sync.Mutex
	clients map[chan sim.Decision]string
	dropped atomic.Uint64
}

func NewBroker() *Broker {
	return &Broker{clients: make(map[chan sim.Decision]string)}
}

// Subscribe registers a client. An empty actorID follows every actor.
func (b *Broker) Subscribe(actorID string) chan sim.Decision {
	ch := make(chan sim.Decision, 16)
	b.mu.Lock()
	b.clients[ch] = actorID
	b.mu.Unlock()
	log.Printf("[http] stream client joined (actor=%q)", actorID)
	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (b *Broker) Unsubscribe(ch chan sim.Decision) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; !ok {
		return
	}
	delete(b.clients, ch)
	close(ch)
	log.Println("[http] stream client left")
}

// Clients reports the number of connected clients.
func (b *Broker) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Dropped counts decisions skipped because a client buffer was full.
func (b *Broker) Dropped() uint64 { return b.dropped.Load() }

// Publish hands d to every client following its actor. It never blocks.
func (b *Broker) Publish(d sim.Decision) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch, actorID := range b.clients {
		if actorID != "" && actorID != d.ActorID {
			continue
		}
		select {
		case ch <- d:
		default:
			b.dropped.Add(1)
		}
	}
}

// ServeHTTP streams decisions as "decision" events, one JSON object per
// event, with the engine tick as the event id. ?actor= narrows the stream.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(r.URL.Query().Get("actor"))
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case d, open := <-ch:
			if !open {
				return
			}
			if err := writeEvent(w, d); err != nil {
				log.Printf("[http] event stream: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, d sim.Decision) error {
	buf, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: decision\ndata: %s\n\n", d.Tick, buf)
	return err
}
