package server

import (
	"context"
	"net/http"
)

// ping denotes the availability of the service and echoes back the identity
// attributed to the request. Load balancer errors return their own codes, so
// an explicit endpoint makes it unambiguous that a functiond instance answered.
func (h AppServer) ping(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	caller, _ := CallerFromContext(ctx)
	jsonResponse(w, protocolCaller(caller))
	return nil
}
