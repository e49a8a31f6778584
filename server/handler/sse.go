// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/pool"
	"github.com/go-a2a/a2a-engine/server/event"
)

// writeStream relays events as Server-Sent Events until the channel closes.
func (h *JSONRPCHandler) writeStream(w http.ResponseWriter, id jsontext.Value, events <-chan event.Event) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("response writer does not support streaming")
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // For Nginx proxy
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		if err := writeEvent(w, id, ev); err != nil {
			h.logger.Warn("failed to write stream event",
				slog.String("task_id", ev.GetTaskID()),
				slog.Any("error", err),
			)
			// Keep draining so the producer is not blocked.
			continue
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, id jsontext.Value, ev event.Event) error {
	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)

	buf.WriteString("event: ")
	buf.WriteString(ev.EventType())
	buf.WriteString("\ndata: ")
	if err := json.MarshalWrite(buf, a2a.NewJSONRPCResult(id, ev)); err != nil {
		return err
	}
	buf.WriteString("\n\n")

	_, err := w.Write(buf.Bytes())
	return err
}
