package protocol

import "time"

// Function defines the API representation of a registered function.
type Function struct {
	// ID is the unique identifier for this function.
	ID string `json:"id"`
	// CreatedDate is the timestamp of when the function was registered.
	CreatedDate time.Time `json:"createdDate"`
	// CreatedBy is the caller that registered the function.
	CreatedBy string `json:"createdBy"`
	// ModifiedDate is the timestamp of when the function was last modified.
	ModifiedDate time.Time `json:"modifiedDate"`
	// ModifiedBy is the caller that last modified the function.
	ModifiedBy string `json:"modifiedBy"`
	// ChangeCount indicates the number of times the function has been modified.
	ChangeCount int `json:"changeCount"`
	// ChangeToken is a generated value assigned at the database. API calls
	// performing updates must provide the changeToken to be verified against
	// the existing value on record to prevent accidental overwrites.
	ChangeToken string `json:"changeToken,omitempty"`
	// Name is the display name for the function.
	Name string `json:"name"`
	// Route is the path fragment the function is addressable by.
	Route string `json:"route"`
	// Language is the implementation language, "python" or "node".
	Language string `json:"language"`
	// Timeout is the maximum execution time in seconds.
	Timeout int `json:"timeout"`
	// Runtime is the OCI runtime used for execution, "runc" or "runsc".
	Runtime string `json:"runtime"`
	// Code is the source of the function payload.
	Code string `json:"code,omitempty"`
}

// FunctionResultset returns a paged collection of Functions.
type FunctionResultset struct {
	Resultset
	// Functions is the page of results.
	Functions []Function `json:"functions"`
}
