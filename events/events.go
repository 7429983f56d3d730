package events

import "encoding/json"

// Event defines a type that can yield itself as JSON bytes for publishing.
type Event interface {
	Yield() []byte
	EventAction() string
	IsSuccessful() bool
}

// GEM is the global event model for the function platform. One GEM is
// emitted per API transaction, and one per container execution.
type GEM struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`
	// SchemaVersion versions the event payload shape.
	SchemaVersion string `json:"schemaVersion"`
	// EventType identifies the stream this event belongs to.
	EventType string `json:"eventType"`
	// OriginatorAddr is the network address the triggering request came from.
	OriginatorAddr string `json:"originator_addr,omitempty"`
	// Timestamp is the unix time the event was created.
	Timestamp int64 `json:"timestamp"`
	// Action is the operation performed, e.g. "create", "execute".
	Action string `json:"action"`
	// Payload carries operation specific details.
	Payload Payload `json:"payload"`
}

// Payload carries the operation specific fields of a GEM.
type Payload struct {
	// SessionID correlates the event with server logs.
	SessionID string `json:"session_id,omitempty"`
	// User is the identity attributed to the triggering request.
	User string `json:"user_dn,omitempty"`
	// FunctionID is the guid of the function acted on, if any.
	FunctionID string `json:"function_id,omitempty"`
	// FunctionName is the name of the function acted on, if any.
	FunctionName string `json:"function_name,omitempty"`
	// Runtime is the OCI runtime involved in an execution event.
	Runtime string `json:"runtime,omitempty"`
	// Success indicates whether the operation succeeded.
	Success bool `json:"success"`
	// StatusCode is the HTTP status returned for the transaction.
	StatusCode int `json:"status_code,omitempty"`
	// Messages holds failure details accumulated for the event.
	Messages []string `json:"messages,omitempty"`
}

// Yield satisfies the Event interface.
func (e GEM) Yield() []byte {
	b, _ := json.Marshal(e)
	return b
}

// EventAction satisfies the Event interface.
func (e GEM) EventAction() string {
	return e.Action
}

// IsSuccessful satisfies the Event interface.
func (e GEM) IsSuccessful() bool {
	return e.Payload.Success
}
