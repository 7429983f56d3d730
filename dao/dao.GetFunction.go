package dao

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/util"
)

var getFunctionStatement = `
    select
        id
        ,guid
        ,createdDate
        ,createdBy
        ,modifiedDate
        ,modifiedBy
        ,isDeleted
        ,deletedDate
        ,deletedBy
        ,changeCount
        ,changeToken
        ,name
        ,route
        ,language
        ,timeout
        ,runtime
        ,code
    from functions`

// GetFunction uses the passed in guid and returns the matching function if
// it exists and has not been deleted.
func (dao *DataAccessLayer) GetFunction(guid string) (models.Function, error) {
	defer util.Time("GetFunction")()
	var dbFunction models.Function
	err := dao.MetadataDB.Get(&dbFunction, getFunctionStatement+` where guid = ? and isDeleted = 0`, guid)
	if err == sql.ErrNoRows {
		return dbFunction, ErrNoRows
	}
	if err != nil {
		dao.GetLogger().Error("error in GetFunction", zap.Error(err))
	}
	return dbFunction, err
}

// GetFunctionByRoute returns the function registered under the given route,
// if it exists and has not been deleted.
func (dao *DataAccessLayer) GetFunctionByRoute(route string) (models.Function, error) {
	defer util.Time("GetFunctionByRoute")()
	var dbFunction models.Function
	err := dao.MetadataDB.Get(&dbFunction,
		getFunctionStatement+` where route = ? and isDeleted = 0 order by createdDate desc limit 1`, route)
	if err == sql.ErrNoRows {
		return dbFunction, ErrNoRows
	}
	if err != nil {
		dao.GetLogger().Error("error in GetFunctionByRoute", zap.Error(err))
	}
	return dbFunction, err
}
