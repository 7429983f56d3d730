package protocol

// CreateFunctionRequest is a subset of Function for creating functions.
type CreateFunctionRequest struct {
	// Name is the display name for the function.
	Name string `json:"name"`
	// Route is the path fragment the function is addressable by.
	Route string `json:"route"`
	// Language is the implementation language, "python" or "node".
	Language string `json:"language"`
	// Timeout is the maximum execution time in seconds. Zero selects the
	// server default.
	Timeout int `json:"timeout"`
	// Runtime is the OCI runtime used for execution. Empty selects "runc".
	Runtime string `json:"runtime"`
	// Code is the source of the function payload.
	Code string `json:"code"`
}

// CreatedFunctionResponse acknowledges a create with the assigned identifier.
type CreatedFunctionResponse struct {
	// Message summarizes the operation outcome.
	Message string `json:"message"`
	// ID is the identifier assigned to the new function.
	ID string `json:"id"`
}
