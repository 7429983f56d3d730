package protocol

// UpdateFunctionRequest is a subset of Function for updating functions.
type UpdateFunctionRequest struct {
	// ID is the unique identifier of the function to update.
	ID string `json:"id,omitempty"`
	// ChangeToken must match the current value on record.
	ChangeToken string `json:"changeToken"`
	// Name is the display name for the function.
	Name string `json:"name"`
	// Route is the path fragment the function is addressable by.
	Route string `json:"route"`
	// Language is the implementation language, "python" or "node".
	Language string `json:"language"`
	// Timeout is the maximum execution time in seconds.
	Timeout int `json:"timeout"`
	// Runtime is the OCI runtime used for execution.
	Runtime string `json:"runtime"`
	// Code is the source of the function payload.
	Code string `json:"code"`
}
