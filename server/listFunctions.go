package server

import (
	"context"
	"net/http"

	"github.com/neritic/functiond/mapping"
	"github.com/neritic/functiond/protocol"
)

func (h AppServer) listFunctions(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {

	d := DAOFromContext(ctx)

	pagingRequest, err := protocol.NewPagingRequest(r.URL.Query())
	if err != nil {
		return NewAppError(http.StatusBadRequest, err, "Error parsing paging request")
	}

	results, err := d.GetFunctions(mapping.MapPagingRequestToDAOPagingRequest(&pagingRequest))
	if err != nil {
		return NewAppError(http.StatusInternalServerError, err, "Error retrieving functions")
	}

	apiResponse := mapping.MapFunctionsToProtocol(&results)
	jsonResponse(w, apiResponse)
	return nil
}
