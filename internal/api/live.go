package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/UninstallAll/PhDAuto/internal/store"
)

const (
	liveWriteWait = 10 * time.Second
	liveBuffer    = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleLive streams every committed store mutation to the browser as JSON.
// Slow clients lose events rather than block the store.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	s.metrics.LiveClientConnected()
	defer s.metrics.LiveClientDisconnected()

	events := make(chan store.Mutation, liveBuffer)
	unsubscribe := s.store.Subscribe(func(m store.Mutation) {
		select {
		case events <- m:
		default:
		}
	})
	defer unsubscribe()

	// The browser never sends anything; reading only notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case m := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(m); err != nil {
				s.log.WithError(err).Debug("live client went away")
				return
			}
		}
	}
}
