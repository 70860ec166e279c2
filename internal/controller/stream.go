package controller

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"example.com/behavior-sim/internal/sim"
)

// Feed fans engine decisions out to subscribers. An empty actor ID follows
// every actor.
type Feed interface {
	Subscribe(actorID string) chan sim.Decision
	Unsubscribe(chan sim.Decision)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Stream pushes decisions to a websocket client as JSON text frames.
// ?actor= narrows the stream to one actor.
func (c *Controller) Stream(w http.ResponseWriter, r *http.Request) {
	if c.Feed == nil {
		respondError(w, http.StatusServiceUnavailable, "stream unavailable")
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	defer ws.Close()

	ch := c.Feed.Subscribe(r.URL.Query().Get("actor"))
	defer c.Feed.Unsubscribe(ch)

	// Reads only serve to notice the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-gone:
			return
		case d, open := <-ch:
			if !open {
				return
			}
			if err := ws.WriteJSON(d); err != nil {
				return
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
