package events

import (
	"fmt"
	"net/http"
)

// SSEHandler returns an http.HandlerFunc that streams events as SSE.
// Clients may filter via ?types=a,b and ?tab_id=.
func SSEHandler(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}
		filter := ParseFilter(r.URL.Query())

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		id, ch := broker.Subscribe()
		defer broker.Unsubscribe(id)

		for {
			select {
			case <-r.Context().Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if !filter.Match(msg) {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, msg.Payload)
				flusher.Flush()
			}
		}
	}
}
