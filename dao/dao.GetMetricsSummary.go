package dao

import (
	"go.uber.org/zap"

	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/util"
)

// GetMetricsSummary aggregates recorded executions grouped by function name
// and runtime, for the platform wide metrics endpoint.
func (dao *DataAccessLayer) GetMetricsSummary() ([]models.MetricsSummary, error) {
	defer util.Time("GetMetricsSummary")()
	summaries := []models.MetricsSummary{}
	err := dao.MetadataDB.Select(&summaries, `
    select
        functionName
        ,runtime
        ,count(*) as executions
        ,avg(responseTime) as avgResponseTime
        ,sum(error) as errorCount
        ,avg(memoryUsage) as avgMemoryUsage
        ,avg(cpuUsage) as avgCpuUsage
    from metrics
    group by functionName, runtime
    order by functionName, runtime`)
	if err != nil {
		dao.GetLogger().Error("error in GetMetricsSummary", zap.Error(err))
	}
	return summaries, err
}
