package mapping

import (
	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/protocol"
)

// MapPagingRequestToDAOPagingRequest converts a protocol PagingRequest to
// the dao layer representation.
func MapPagingRequestToDAOPagingRequest(i *protocol.PagingRequest) dao.PagingRequest {
	o := dao.PagingRequest{}
	o.PageNumber = i.PageNumber
	o.PageSize = i.PageSize
	return o
}
