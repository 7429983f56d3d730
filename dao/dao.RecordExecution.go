package dao

import (
	"time"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"

	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/util"
)

// RecordExecution inserts a metric row for a single function execution and
// returns the stored record. Executions that failed or timed out are
// recorded the same as successful ones, with the error flag set.
func (dao *DataAccessLayer) RecordExecution(metric *models.ExecutionMetric) (models.ExecutionMetric, error) {
	defer util.Time("RecordExecution")()
	logger := dao.GetLogger()
	retryCounter := dao.BusyRetryCounter
	retryDelay := dao.BusyRetryDelay
	tx, err := dao.MetadataDB.Beginx()
	if err != nil {
		logger.Error("could not begin transaction", zap.Error(err))
		return models.ExecutionMetric{}, err
	}
	dbMetric, err := recordExecutionInTransaction(tx, metric)
	for retryCounter > 0 && err != nil && util.ContainsAny(err.Error(), retryOnErrorMessageContains) {
		logger.Debug("restarting transaction for recordExecutionInTransaction",
			zap.String("retryReason", util.FirstMatch(err.Error(), retryOnErrorMessageContains)),
			zap.Int64("retryCounter", retryCounter))
		tx.Rollback()
		time.Sleep(time.Duration(retryDelay) * time.Millisecond)
		retryCounter--
		tx, err = dao.MetadataDB.Beginx()
		if err != nil {
			logger.Error("could not begin transaction", zap.Error(err))
			return models.ExecutionMetric{}, err
		}
		dbMetric, err = recordExecutionInTransaction(tx, metric)
	}
	if err != nil {
		logger.Error("error in RecordExecution", zap.Error(err))
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return dbMetric, err
}

func recordExecutionInTransaction(tx *sqlx.Tx, metric *models.ExecutionMetric) (models.ExecutionMetric, error) {
	var dbMetric models.ExecutionMetric

	createdDate := metric.CreatedDate
	if createdDate.IsZero() {
		createdDate = time.Now().UTC()
	}

	result, err := tx.Exec(`
		insert into metrics
			(createdDate, functionGuid, functionName, runtime, responseTime, error,
			stdout, stderr, memoryUsage, cpuUsage, coldStart)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		createdDate, metric.FunctionGUID, metric.FunctionName, metric.Runtime,
		metric.ResponseTime, metric.Error, metric.Stdout.String, metric.Stderr.String,
		metric.MemoryUsage, metric.CPUUsage, metric.ColdStart)
	if err != nil {
		return dbMetric, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return dbMetric, err
	}
	err = tx.Get(&dbMetric, getMetricStatement+` where id = ?`, id)
	return dbMetric, err
}
