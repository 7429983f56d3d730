package models

import "time"

// ExecutionMetric is a structure defining the attributes captured for a
// single function execution.
type ExecutionMetric struct {
	// ID is the internal autoincrement identifier.
	ID int64 `db:"id"`
	// CreatedDate is the timestamp of the execution.
	CreatedDate time.Time `db:"createdDate"`
	// FunctionGUID references the executed function.
	FunctionGUID string `db:"functionGuid"`
	// FunctionName is denormalized for aggregate queries by name.
	FunctionName string `db:"functionName"`
	// Runtime is the OCI runtime the execution ran under.
	Runtime string `db:"runtime"`
	// ResponseTime is the wall time of the execution in milliseconds.
	ResponseTime int64 `db:"responseTime"`
	// Error is set when the execution failed or timed out.
	Error bool `db:"error"`
	// Stdout holds captured standard output.
	Stdout NullString `db:"stdout"`
	// Stderr holds captured standard error.
	Stderr NullString `db:"stderr"`
	// MemoryUsage is the sampled container memory usage in MB.
	MemoryUsage float64 `db:"memoryUsage"`
	// CPUUsage is the sampled container cpu usage in percent.
	CPUUsage float64 `db:"cpuUsage"`
	// ColdStart is set when no warm container was available.
	ColdStart bool `db:"coldStart"`
}

// ExecutionMetricResultset encapsulates an array of ExecutionMetric with
// resultset paging information.
type ExecutionMetricResultset struct {
	Resultset
	Metrics []ExecutionMetric
}

// MetricsSummary aggregates the executions of one function under one runtime.
type MetricsSummary struct {
	FunctionName    string  `db:"functionName"`
	Runtime         string  `db:"runtime"`
	Executions      int64   `db:"executions"`
	AvgResponseTime float64 `db:"avgResponseTime"`
	ErrorCount      int64   `db:"errorCount"`
	AvgMemoryUsage  float64 `db:"avgMemoryUsage"`
	AvgCPUUsage     float64 `db:"avgCpuUsage"`
}
