package dao

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/util"
)

var getMetricStatement = `
    select
        id
        ,createdDate
        ,functionGuid
        ,functionName
        ,runtime
        ,responseTime
        ,error
        ,stdout
        ,stderr
        ,memoryUsage
        ,cpuUsage
        ,coldStart
    from metrics`

// GetLatestMetricForFunction returns the most recently recorded execution
// metric for the function identified by guid.
func (dao *DataAccessLayer) GetLatestMetricForFunction(functionGUID string) (models.ExecutionMetric, error) {
	defer util.Time("GetLatestMetricForFunction")()
	var dbMetric models.ExecutionMetric
	err := dao.MetadataDB.Get(&dbMetric,
		getMetricStatement+` where functionGuid = ? order by id desc limit 1`, functionGUID)
	if err == sql.ErrNoRows {
		return dbMetric, ErrNoRows
	}
	if err != nil {
		dao.GetLogger().Error("error in GetLatestMetricForFunction", zap.Error(err))
	}
	return dbMetric, err
}

// GetMetricsForFunction retrieves a page of execution metrics for the
// function identified by guid, most recent first.
func (dao *DataAccessLayer) GetMetricsForFunction(functionGUID string, pagingRequest PagingRequest) (models.ExecutionMetricResultset, error) {
	defer util.Time("GetMetricsForFunction")()
	var response models.ExecutionMetricResultset

	err := dao.MetadataDB.Get(&response.TotalRows,
		`select count(*) from metrics where functionGuid = ?`, functionGUID)
	if err != nil {
		dao.GetLogger().Error("error counting metrics", zap.Error(err))
		return response, err
	}

	pr := pagingRequest.Sanitized()
	response.PageNumber = pr.PageNumber
	response.PageSize = pr.PageSize
	response.PageCount = pagingRequest.PageCount(response.TotalRows)

	err = dao.MetadataDB.Select(&response.Metrics,
		getMetricStatement+` where functionGuid = ? order by id desc limit ? offset ?`,
		functionGUID, pagingRequest.Limit(), pagingRequest.Offset())
	if err != nil {
		dao.GetLogger().Error("error in GetMetricsForFunction", zap.Error(err))
		return response, err
	}
	response.PageRows = len(response.Metrics)
	return response, nil
}
