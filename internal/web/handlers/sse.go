package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// sendSSEEvent writes one server-sent event and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}

// Events streams the session's outcomes as server-sent events until the
// session ends or the client disconnects. The first event is a status
// snapshot so late subscribers catch up.
func (h *SessionsHandler) Events(w http.ResponseWriter, r *http.Request) {
	session := h.lookup(w, r)
	if session == nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	eventCh := session.AddListener()
	defer session.RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "status", session.Snapshot())

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event.Data)
			if session.GetStatus() != SessionStatusActive {
				return
			}
		}
	}
}
