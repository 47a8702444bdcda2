package events

import (
	"log/slog"
	"net/http"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// WSHandler returns an http.HandlerFunc that upgrades to a WebSocket and
// writes each event as one text frame. Filters match SSEHandler. Frames sent
// by the client are read and discarded; a close frame or read error ends the
// stream.
func WSHandler(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ParseFilter(r.URL.Query())

		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			slog.Debug("event websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		id, ch := broker.Subscribe()
		defer broker.Unsubscribe(id)

		readerDone := make(chan struct{})
		go func() {
			defer close(readerDone)
			for {
				if _, _, err := wsutil.ReadClientData(conn); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-readerDone:
				return
			case <-r.Context().Done():
				return
			case msg, ok := <-ch:
				if !ok {
					_ = wsutil.WriteServerMessage(conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusGoingAway, "shutdown"))
					return
				}
				if !filter.Match(msg) {
					continue
				}
				if err := wsutil.WriteServerText(conn, []byte(msg.Payload)); err != nil {
					slog.Debug("event websocket write failed", "subscriber", id, "error", err)
					return
				}
			}
		}
	}
}
