package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/journeyhub/journeyhub/internal/notify"
)

type eventsHandler struct {
	hub *notify.Hub
}

// stream bridges the notify hub to a server-sent-events response. Each
// hub event becomes a "journey-updated" SSE message; clients refetch the
// journey on receipt.
func (h *eventsHandler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	journeyID := chi.URLParam(r, "journeyID")
	events, cancel := h.hub.Subscribe(journeyID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case id := <-events:
			fmt.Fprintf(w, "event: journey-updated\ndata: %s\n\n", id)
			flusher.Flush()
		}
	}
}
