package server

import (
	"context"
	"fmt"
	"net/http"
)

// cors handles pre-flight requests. The important part was already done in
// the ServeHTTP method where an allowed Origin was reflected back as
// Access-Control-Allow-Origin -- not as '*'. If the web UI references the
// API and also hosts a malware ad-banner in the same page, the ad-banner
// site must not get access to functions the UI registered.
func (h AppServer) cors(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {

	if r.Header.Get("Origin") == "" {
		return NewAppError(http.StatusBadRequest, fmt.Errorf("Origin must be specified in CORS Preflight request"), "missing origin")
	}

	reqM := "GET, PUT, DELETE, POST, HEAD, OPTIONS"
	reqH := r.Header.Get("Access-Control-Request-Headers")
	if reqH == "" {
		reqH = "content-type, x-requested-with"
	}

	w.Header().Set("Access-Control-Allow-Methods", reqM)
	w.Header().Set("Access-Control-Allow-Headers", reqH)
	w.Header().Set("Access-Control-Max-Age", "600")
	w.Header().Set("Content-Type", "text/plain charset=UTF-8")
	w.Header().Set("Content-Length", "0")
	return NewAppError(http.StatusNoContent, nil, "preflight")
}
