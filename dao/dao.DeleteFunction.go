package dao

import (
	"time"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"

	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/util"
)

// DeleteFunction marks a function as deleted. The record is retained so that
// metrics recorded against it keep a valid reference.
func (dao *DataAccessLayer) DeleteFunction(fn models.Function, deletedBy string) error {
	defer util.Time("DeleteFunction")()
	logger := dao.GetLogger()
	retryCounter := dao.BusyRetryCounter
	retryDelay := dao.BusyRetryDelay
	tx, err := dao.MetadataDB.Beginx()
	if err != nil {
		logger.Error("could not begin transaction", zap.Error(err))
		return err
	}
	err = deleteFunctionInTransaction(tx, fn, deletedBy)
	for retryCounter > 0 && err != nil && util.ContainsAny(err.Error(), retryOnErrorMessageContains) {
		logger.Debug("restarting transaction for deleteFunctionInTransaction",
			zap.String("retryReason", util.FirstMatch(err.Error(), retryOnErrorMessageContains)),
			zap.Int64("retryCounter", retryCounter))
		tx.Rollback()
		time.Sleep(time.Duration(retryDelay) * time.Millisecond)
		retryCounter--
		tx, err = dao.MetadataDB.Beginx()
		if err != nil {
			logger.Error("could not begin transaction", zap.Error(err))
			return err
		}
		err = deleteFunctionInTransaction(tx, fn, deletedBy)
	}
	if err != nil {
		if err != ErrNoRows {
			logger.Error("error in DeleteFunction", zap.Error(err))
		}
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return err
}

func deleteFunctionInTransaction(tx *sqlx.Tx, fn models.Function, deletedBy string) error {
	now := time.Now().UTC()
	result, err := tx.Exec(`
		update functions set
			isDeleted = 1, deletedDate = ?, deletedBy = ?, modifiedDate = ?, modifiedBy = ?
		where guid = ? and isDeleted = 0`,
		now, deletedBy, now, deletedBy, fn.GUID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNoRows
	}
	return nil
}
