package server

import (
	"net/http"
	"time"

	"github.com/neritic/functiond/events"
)

// globalEventFromRequest extracts data from the request and sets up a
// standard set of fields on the global event model.
func globalEventFromRequest(r *http.Request) events.GEM {
	addr := r.Header.Get("X-Forwarded-For")
	if addr == "" {
		addr = r.RemoteAddr
	}
	return events.GEM{
		ID:             newGUID(),
		SchemaVersion:  "1.0",
		EventType:      "functiond-event",
		OriginatorAddr: addr,
		Timestamp:      time.Now().Unix(),
		Action:         "unknown",
	}
}
