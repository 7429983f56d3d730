package dao

import (
	"go.uber.org/zap"

	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/util"
)

// GetFunctions retrieves a page of functions that have not been deleted,
// most recently registered first.
func (dao *DataAccessLayer) GetFunctions(pagingRequest PagingRequest) (models.FunctionResultset, error) {
	defer util.Time("GetFunctions")()
	var response models.FunctionResultset

	err := dao.MetadataDB.Get(&response.TotalRows, `select count(*) from functions where isDeleted = 0`)
	if err != nil {
		dao.GetLogger().Error("error counting functions", zap.Error(err))
		return response, err
	}

	pr := pagingRequest.Sanitized()
	response.PageNumber = pr.PageNumber
	response.PageSize = pr.PageSize
	response.PageCount = pagingRequest.PageCount(response.TotalRows)

	err = dao.MetadataDB.Select(&response.Functions,
		getFunctionStatement+` where isDeleted = 0 order by createdDate desc, id desc limit ? offset ?`,
		pagingRequest.Limit(), pagingRequest.Offset())
	if err != nil {
		dao.GetLogger().Error("error in GetFunctions", zap.Error(err))
		return response, err
	}
	response.PageRows = len(response.Functions)
	return response, nil
}
