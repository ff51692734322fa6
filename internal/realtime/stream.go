package realtime

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const heartbeatInterval = 15 * time.Second

// frameWriter writes text/event-stream frames and flushes each one.
type frameWriter struct {
	w     io.Writer
	flush func()
	seq   uint64
}

func (f *frameWriter) comment(text string) error {
	if _, err := fmt.Fprintf(f.w, ": %s\n\n", text); err != nil {
		return err
	}
	f.flush()
	return nil
}

func (f *frameWriter) event(msg SSEMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	f.seq++
	if _, err := fmt.Fprintf(f.w, "id: %d\nevent: %s\ndata: %s\n\n", f.seq, msg.Event, raw); err != nil {
		return err
	}
	f.flush()
	return nil
}

// ServeHTTP streams client's messages until the request ends or the client is closed.
func (hub *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *SSEClient) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	fw := &frameWriter{w: w, flush: flusher.Flush}
	if err := fw.comment("connected"); err != nil {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	ctx := r.Context()
	for {
		var err error
		select {
		case <-ctx.Done():
			hub.log.Debug("SSE client context done", "client_id", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			err = fw.comment("ping")
		case msg, ok := <-client.Outbound:
			if !ok {
				return
			}
			err = fw.event(msg)
		}
		if err != nil {
			hub.log.Debug("SSE write failed", "client_id", client.ID, "error", err)
			return
		}
	}
}
