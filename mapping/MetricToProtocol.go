package mapping

import (
	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/protocol"
)

// MapExecutionMetricToProtocol converts an internal ExecutionMetric model
// into an API exposable protocol ExecutionMetrics.
func MapExecutionMetricToProtocol(i *models.ExecutionMetric) protocol.ExecutionMetrics {
	o := protocol.ExecutionMetrics{}
	o.ResponseTime = i.ResponseTime
	o.Error = i.Error
	o.Stdout = i.Stdout.String
	o.Stderr = i.Stderr.String
	o.MemoryUsage = i.MemoryUsage
	o.CPUUsage = i.CPUUsage
	o.ColdStart = i.ColdStart
	return o
}

// MapExecutionMetricsToProtocol converts a resultset of internal
// ExecutionMetric models into a protocol ExecutionMetricsResultset.
func MapExecutionMetricsToProtocol(i *models.ExecutionMetricResultset) protocol.ExecutionMetricsResultset {
	o := protocol.ExecutionMetricsResultset{}
	o.TotalRows = i.TotalRows
	o.PageCount = i.PageCount
	o.PageNumber = i.PageNumber
	o.PageSize = i.PageSize
	o.PageRows = i.PageRows
	o.Metrics = make([]protocol.ExecutionMetrics, len(i.Metrics))
	for idx := range i.Metrics {
		o.Metrics[idx] = MapExecutionMetricToProtocol(&i.Metrics[idx])
	}
	return o
}

// MapMetricsSummariesToProtocol converts aggregated metric rows into the API shape.
func MapMetricsSummariesToProtocol(i []models.MetricsSummary) []protocol.MetricsSummary {
	o := make([]protocol.MetricsSummary, len(i))
	for idx, s := range i {
		o[idx] = protocol.MetricsSummary{
			FunctionName:    s.FunctionName,
			Runtime:         s.Runtime,
			Executions:      s.Executions,
			AvgResponseTime: s.AvgResponseTime,
			ErrorCount:      s.ErrorCount,
			AvgMemoryUsage:  s.AvgMemoryUsage,
			AvgCPUUsage:     s.AvgCPUUsage,
		}
	}
	return o
}
