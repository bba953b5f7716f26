package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/salsa-telescope/salsa/internal/session"
	"github.com/salsa-telescope/salsa/internal/spectrum"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamSpectra upgrades to a websocket and streams the telescope's receiver
// output: one metadata text message first, then a binary frame per update.
func (s *Server) streamSpectra(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.lookupTelescope(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	meta, err := json.Marshal(session.Metadata{VLSRCorrectionMps: scope.VLSRCorrectionMps()})
	if err != nil {
		log.Printf("failed to serialise stream metadata: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, meta); err != nil {
		return
	}

	id, frames := scope.Subscribe()
	defer scope.Unsubscribe(id)

	// Drain the connection so client closes are noticed promptly.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, spectrum.EncodeBinaryFrame(frame)); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
