package server

import (
	"net/http"
	"strconv"

	"golang.org/x/net/websocket"

	"clipchimp/internal/logging"
)

// eventsHandler streams hub events over a websocket. Clients may pass
// ?since=N to replay retained history after sequence N before live delivery
// begins.
func (s *Server) eventsHandler() http.Handler {
	if s.hub == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.writeError(w, http.StatusServiceUnavailable, "event stream unavailable")
		})
	}

	return websocket.Handler(func(conn *websocket.Conn) {
		defer conn.Close()

		since, _ := strconv.ParseUint(conn.Request().URL.Query().Get("since"), 10, 64)

		// Subscribe before replay so nothing published in between is lost;
		// replayed duplicates are filtered by sequence below.
		ch, cancel := s.hub.Subscribe(64)
		defer cancel()

		lastSent := since
		for _, event := range s.hub.Since(since) {
			if err := websocket.JSON.Send(conn, event); err != nil {
				return
			}
			lastSent = event.Sequence
		}

		// Detect client disconnect: the read pump fails when the peer goes
		// away, which unblocks the send loop via done.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				var discard string
				if err := websocket.Message.Receive(conn, &discard); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case event, ok := <-ch:
				if !ok {
					return
				}
				if event.Sequence <= lastSent {
					continue
				}
				if err := websocket.JSON.Send(conn, event); err != nil {
					s.logger.Debug("event stream closed", logging.Error(err))
					return
				}
				lastSent = event.Sequence
			}
		}
	})
}
