package dao

import (
	"github.com/neritic/functiond/metadata/models"
)

// GetDBState retrieves the schema bookkeeping record for this database.
func (dao *DataAccessLayer) GetDBState() (models.DBState, error) {
	var state models.DBState
	err := dao.MetadataDB.Get(&state,
		`select createdDate, modifiedDate, schemaVersion, identifier from dbstate limit 1`)
	return state, err
}
