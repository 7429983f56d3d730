package dao

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"

	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/util"
)

// CreateFunction adds a new function registration to the database based upon
// the passed in function settings. At a minimum, createdBy and the name of
// the function must exist. Once added, the record is retrieved and returned
// with its assigned identifiers.
func (dao *DataAccessLayer) CreateFunction(fn *models.Function) (models.Function, error) {
	defer util.Time("CreateFunction")()
	logger := dao.GetLogger()
	retryCounter := dao.BusyRetryCounter
	retryDelay := dao.BusyRetryDelay
	tx, err := dao.MetadataDB.Beginx()
	if err != nil {
		logger.Error("could not begin transaction", zap.Error(err))
		return models.Function{}, err
	}
	dbFunction, err := createFunctionInTransaction(tx, fn)
	for retryCounter > 0 && err != nil && util.ContainsAny(err.Error(), retryOnErrorMessageContains) {
		logger.Debug("restarting transaction for createFunctionInTransaction",
			zap.String("retryReason", util.FirstMatch(err.Error(), retryOnErrorMessageContains)),
			zap.Int64("retryCounter", retryCounter))
		tx.Rollback()
		time.Sleep(time.Duration(retryDelay) * time.Millisecond)
		retryCounter--
		tx, err = dao.MetadataDB.Beginx()
		if err != nil {
			logger.Error("could not begin transaction", zap.Error(err))
			return models.Function{}, err
		}
		dbFunction, err = createFunctionInTransaction(tx, fn)
	}
	if err != nil {
		logger.Error("error in CreateFunction", zap.Error(err))
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return dbFunction, err
}

func createFunctionInTransaction(tx *sqlx.Tx, fn *models.Function) (models.Function, error) {
	var dbFunction models.Function

	guid, err := util.NewGUID()
	if err != nil {
		return dbFunction, fmt.Errorf("CreateFunction error generating guid, %s", err.Error())
	}
	changeToken, err := util.NewGUID()
	if err != nil {
		return dbFunction, fmt.Errorf("CreateFunction error generating change token, %s", err.Error())
	}
	now := time.Now().UTC()

	addFunctionStatement, err := tx.Preparex(`
		insert into functions
			(guid, createdDate, createdBy, modifiedDate, modifiedBy, isDeleted,
			changeCount, changeToken, name, route, language, timeout, runtime, code)
		values (?, ?, ?, ?, ?, 0, 0, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dbFunction, fmt.Errorf("CreateFunction error preparing add function statement, %s", err.Error())
	}
	defer addFunctionStatement.Close()
	if _, err := addFunctionStatement.Exec(guid, now, fn.CreatedBy, now, fn.CreatedBy,
		changeToken, fn.Name, fn.Route, fn.Language, fn.Timeout, fn.Runtime, fn.Code.String); err != nil {
		return dbFunction, err
	}
	// Retrieve it
	err = tx.Get(&dbFunction, getFunctionStatement+` where guid = ?`, guid)
	return dbFunction, err
}
