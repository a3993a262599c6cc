package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hperssn/panicbutton/internal/app"
)

// stream writes every value from events as a server-sent event until the
// channel closes or the client goes away.
func stream[T any](w http.ResponseWriter, r *http.Request, name func(T) string, events <-chan T, cancel func()) {
	defer cancel()

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondMessage(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}

			data, err := json.Marshal(ev)
			if err != nil {
				return
			}
			if n := name(ev); n != "" {
				fmt.Fprintf(w, "event: %s\n", n)
			}
			w.Write([]byte("data: "))
			w.Write(data)
			w.Write([]byte("\n\n"))

			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func StreamSessionEvents(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		events, cancel, err := svc.SubscribeBreathing(userID(r), id)
		if err != nil {
			respondError(w, err)
			return
		}

		stream(w, r, phaseEventName, events, cancel)
	}
}

func StreamBoltEvents(svc *app.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, cancel := svc.SubscribeBolt(userID(r))
		stream(w, r, boltEventName, events, cancel)
	}
}
