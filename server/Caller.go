package server

import (
	"net/http"

	"github.com/neritic/functiond/protocol"
)

// AnonymousIdentity is attributed to requests that carry no identity header.
const AnonymousIdentity = "anonymous"

// Caller provides the identity attributed to an incoming request. There is
// no authentication layer in front of the platform yet, so the identity is
// taken from a header when present.
type Caller struct {
	// Identity is the resolved identity of the caller.
	Identity string
	// UserAgent is the client software reported by the request.
	UserAgent string
	// RemoteAddr is the network address the request originated from.
	RemoteAddr string
}

// CallerFromRequest populates a Caller from request headers.
func CallerFromRequest(r *http.Request) Caller {
	identity := r.Header.Get("X-User")
	if identity == "" {
		identity = AnonymousIdentity
	}
	return Caller{
		Identity:   identity,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
	}
}

func protocolCaller(caller Caller) protocol.Caller {
	return protocol.Caller{
		Identity:   caller.Identity,
		UserAgent:  caller.UserAgent,
		RemoteAddr: caller.RemoteAddr,
	}
}
