// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/draftforge/herodraft/internal/draft"
	"github.com/draftforge/herodraft/internal/hub"
	"github.com/draftforge/herodraft/internal/middleware"
)

// DraftWSHandler subscribes a client to a lobby's draft events. Any
// authenticated user may watch; a captain's disconnect is reported to the
// coordinator, which cancels the draft per the abandonment rule.
func (s *Server) DraftWSHandler(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr
	lobbyID, err := pathUUID(r, "lobby_id")
	if err != nil {
		http.Error(w, "invalid lobby_id", http.StatusBadRequest)
		return
	}

	userID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"draft"},
		OriginPatterns: []string{"*"}, // Adjust in production
	})
	if err != nil {
		s.Log.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != "draft" {
		c.Close(BadSubprotocolError, "client must speak the draft subprotocol")
		return
	}

	// The lobby must exist before we subscribe.
	snap, err := s.Coordinator.Snapshot(r.Context(), lobbyID)
	if err != nil {
		c.Close(InvalidLobbyIDError, "lobby does not exist")
		return
	}

	middleware.LogWebSocketConnect(s.Log, remoteAddr, r.URL.Path)

	sub := s.Hub.Subscribe(lobbyID, userID)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Late joiners converge from the initial sync; everything after that
	// arrives as events.
	if err := writeEvent(ctx, c, draft.Event{Type: draft.EventStateSync, State: snap}); err != nil {
		s.Hub.Unsubscribe(lobbyID, sub)
		return
	}

	go s.writePump(ctx, c, sub, cancel)

	// Read loop: the draft protocol is server-to-client; inbound frames
	// only matter as liveness signals, so we discard them until the read
	// fails and tells us the client is gone.
	var readErr error
	for {
		if _, _, readErr = c.Read(ctx); readErr != nil {
			break
		}
	}
	cancel()

	s.Hub.Unsubscribe(lobbyID, sub)
	middleware.LogWebSocketDisconnect(s.Log, remoteAddr, r.URL.Path, readErr)
	s.Coordinator.HandleDisconnect(lobbyID, userID)
}

// writePump forwards hub events to the websocket and pings periodically.
func (s *Server) writePump(ctx context.Context, c *websocket.Conn, sub *hub.Subscription, cancel context.CancelFunc) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				c.Close(websocket.StatusGoingAway, "subscription closed")
				return
			}
			if err := writeEvent(ctx, c, ev); err != nil {
				s.Log.Warnf("failed to write %s event to subscriber %s: %v", ev.Type, sub.UserID, err)
				return
			}
		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			pingCancel()
			if err != nil {
				logrus.Warnf("ping failed for subscriber %s, assuming disconnect: %v", sub.UserID, err)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, c *websocket.Conn, ev draft.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.Write(writeCtx, websocket.MessageText, data)
}
