package carts

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// handleStream upgrades to a websocket and pushes tick snapshots as JSON
// text frames until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.opts.Snapshots == nil {
		writeError(w, http.StatusNotFound, "stream disabled")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	sub := s.opts.Snapshots.Subscribe()
	defer s.opts.Snapshots.Unsubscribe(sub)

	// The reader only drains control frames and notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	n := 0
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case snap, ok := <-sub:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"), time.Now().Add(time.Second))
				return
			}
			n++
			if (n-1)%s.opts.StreamEvery != 0 {
				continue
			}
			b, err := json.Marshal(snap)
			if err != nil {
				s.log.Errorf("encode snapshot: %v", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}
