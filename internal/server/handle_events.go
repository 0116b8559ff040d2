package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const ssePingInterval = 30 * time.Second

// userIDParam reads the optional user_id query parameter; zero means
// every user.
func userIDParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user_id %q", raw)
	}
	return id, nil
}

// eventStream writes Server-Sent Events frames.
type eventStream struct {
	w http.ResponseWriter
	f http.Flusher
}

func openEventStream(w http.ResponseWriter) (*eventStream, bool) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &eventStream{w: w, f: f}, true
}

func (s *eventStream) send(event string, data []byte) {
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data)
	s.f.Flush()
}

func (s *eventStream) comment(text string) {
	fmt.Fprintf(s.w, ": %s\n\n", text)
	s.f.Flush()
}

// handleEvents streams lifecycle notifications, for one user when
// user_id is given and for everyone otherwise.
func handleEvents(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		topic := adminTopic
		if userID > 0 {
			topic = userTopic(userID)
		}

		stream, ok := openEventStream(w)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		ch := broker.Subscribe(topic)
		defer broker.Unsubscribe(topic, ch)

		ping := time.NewTicker(ssePingInterval)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				stream.send("notification", data)
			case <-ping.C:
				stream.comment("ping")
			}
		}
	}
}
