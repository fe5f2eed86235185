package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/pipeline"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// SnapshotSource provides the latest snapshot and a feed of new ones.
type SnapshotSource interface {
	Snapshot() pipeline.Snapshot
	Subscribe() (<-chan pipeline.Snapshot, func())
}

// SnapshotsHandler streams pipeline snapshots to WebSocket clients as JSON,
// starting with the current one. Each client has its own subscription, so a
// slow client skips snapshots instead of holding up the others.
type SnapshotsHandler struct {
	source SnapshotSource
}

// NewSnapshotsHandler creates a new SnapshotsHandler for the given source.
func NewSnapshotsHandler(source SnapshotSource) *SnapshotsHandler {
	return &SnapshotsHandler{source: source}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *SnapshotsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	snaps, cancel := h.source.Subscribe()
	defer cancel()

	// Clients only send close frames; reading is how the close is noticed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(snap pipeline.Snapshot) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(snap)
	}

	if err := send(h.source.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case snap := <-snaps:
			if err := send(snap); err != nil {
				return
			}
		}
	}
}
