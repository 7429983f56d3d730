package protocol

// MetricsSummary aggregates the executions of one function under one runtime.
type MetricsSummary struct {
	// FunctionName identifies the function aggregated.
	FunctionName string `json:"function_name"`
	// Runtime identifies the OCI runtime aggregated.
	Runtime string `json:"runtime"`
	// Executions is the total number of recorded executions.
	Executions int64 `json:"executions"`
	// AvgResponseTime is the mean wall time in milliseconds.
	AvgResponseTime float64 `json:"avg_response_time"`
	// ErrorCount is the number of failed executions.
	ErrorCount int64 `json:"error_count"`
	// AvgMemoryUsage is the mean sampled memory usage in MB.
	AvgMemoryUsage float64 `json:"avg_memory_usage_mb"`
	// AvgCPUUsage is the mean sampled cpu usage in percent.
	AvgCPUUsage float64 `json:"avg_cpu_usage_percent"`
}

// MetricsSummaryResponse wraps aggregated metrics for all functions.
type MetricsSummaryResponse struct {
	Metrics []MetricsSummary `json:"metrics"`
}
