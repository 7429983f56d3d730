package dao

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"

	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/util"
)

// ErrChangeTokenMismatch is returned when an update presents a change token
// that does not match the value on record.
var ErrChangeTokenMismatch = fmt.Errorf("dao: the change token does not match the expected value")

// UpdateFunction updates the mutable fields of a function identified by its
// guid. The change token passed on the model must match the current record
// or the update is rejected. The updated record is returned.
func (dao *DataAccessLayer) UpdateFunction(fn *models.Function) (models.Function, error) {
	defer util.Time("UpdateFunction")()
	logger := dao.GetLogger()
	retryCounter := dao.BusyRetryCounter
	retryDelay := dao.BusyRetryDelay
	tx, err := dao.MetadataDB.Beginx()
	if err != nil {
		logger.Error("could not begin transaction", zap.Error(err))
		return models.Function{}, err
	}
	dbFunction, err := updateFunctionInTransaction(tx, fn)
	for retryCounter > 0 && err != nil && util.ContainsAny(err.Error(), retryOnErrorMessageContains) {
		logger.Debug("restarting transaction for updateFunctionInTransaction",
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
		dbFunction, err = updateFunctionInTransaction(tx, fn)
	}
	if err != nil {
		if err != ErrNoRows && err != ErrChangeTokenMismatch {
			logger.Error("error in UpdateFunction", zap.Error(err))
		}
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return dbFunction, err
}

func updateFunctionInTransaction(tx *sqlx.Tx, fn *models.Function) (models.Function, error) {
	var dbFunction models.Function

	var existing models.Function
	err := tx.Get(&existing, getFunctionStatement+` where guid = ? and isDeleted = 0`, fn.GUID)
	if err == sql.ErrNoRows {
		return dbFunction, ErrNoRows
	}
	if err != nil {
		return dbFunction, err
	}
	if existing.ChangeToken != fn.ChangeToken {
		return dbFunction, ErrChangeTokenMismatch
	}

	changeToken, err := util.NewGUID()
	if err != nil {
		return dbFunction, fmt.Errorf("UpdateFunction error generating change token, %s", err.Error())
	}
	now := time.Now().UTC()

	updateFunctionStatement, err := tx.Preparex(`
		update functions set
			modifiedDate = ?, modifiedBy = ?, changeCount = changeCount + 1, changeToken = ?,
			name = ?, route = ?, language = ?, timeout = ?, runtime = ?, code = ?
		where guid = ? and isDeleted = 0`)
	if err != nil {
		return dbFunction, fmt.Errorf("UpdateFunction error preparing update statement, %s", err.Error())
	}
	defer updateFunctionStatement.Close()
	if _, err := updateFunctionStatement.Exec(now, fn.ModifiedBy, changeToken,
		fn.Name, fn.Route, fn.Language, fn.Timeout, fn.Runtime, fn.Code.String, fn.GUID); err != nil {
		return dbFunction, err
	}

	err = tx.Get(&dbFunction, getFunctionStatement+` where guid = ?`, fn.GUID)
	return dbFunction, err
}
