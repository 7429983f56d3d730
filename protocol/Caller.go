package protocol

// Caller is the API representation of the identity attributed to a request.
type Caller struct {
	// Identity is the resolved identity of the caller.
	Identity string `json:"identity"`
	// UserAgent is the client software reported by the request.
	UserAgent string `json:"userAgent,omitempty"`
	// RemoteAddr is the network address the request originated from.
	RemoteAddr string `json:"remoteAddr,omitempty"`
}
