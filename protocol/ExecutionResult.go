package protocol

// ExecutionResult is returned from a run request.
type ExecutionResult struct {
	// Output is the captured standard output of the function.
	Output string `json:"output"`
}

// ExecutionMetrics reports the measurements captured for one execution.
type ExecutionMetrics struct {
	// ResponseTime is the wall time of the execution in milliseconds.
	ResponseTime int64 `json:"response_time"`
	// Error is set when the execution failed or timed out.
	Error bool `json:"error"`
	// Stdout holds captured standard output.
	Stdout string `json:"stdout"`
	// Stderr holds captured standard error.
	Stderr string `json:"stderr"`
	// MemoryUsage is the sampled container memory usage in MB.
	MemoryUsage float64 `json:"memory_usage"`
	// CPUUsage is the sampled container cpu usage in percent.
	CPUUsage float64 `json:"cpu_usage"`
	// ColdStart is set when no warm container was available.
	ColdStart bool `json:"cold_start"`
}

// FunctionMetricsResponse wraps the latest metrics for a function.
type FunctionMetricsResponse struct {
	Metrics ExecutionMetrics `json:"metrics"`
}

// ExecutionMetricsResultset returns a paged collection of execution metrics.
type ExecutionMetricsResultset struct {
	Resultset
	Metrics []ExecutionMetrics `json:"metrics"`
}

// RuntimeResult pairs the measurements and output of an execution under a
// specific runtime for comparison responses.
type RuntimeResult struct {
	// ResponseTime is the wall time of the execution in milliseconds.
	ResponseTime int64 `json:"response_time"`
	// MemoryUsage is the sampled container memory usage in MB.
	MemoryUsage float64 `json:"memory_usage"`
	// CPUUsage is the sampled container cpu usage in percent.
	CPUUsage float64 `json:"cpu_usage"`
	// Output is the captured standard output of the function.
	Output string `json:"output"`
}

// RuntimeComparison reports the same function executed under runc and runsc.
type RuntimeComparison struct {
	Comparison map[string]RuntimeResult `json:"comparison"`
}
