package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/mapping"
	"github.com/neritic/functiond/protocol"
)

func (h AppServer) listFunctionMetrics(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {

	d := DAOFromContext(ctx)

	guid, herr := functionGUIDFromContext(ctx)
	if herr != nil {
		return herr
	}
	fn, err := h.FetchFunction(ctx, guid)
	if err != nil {
		if errors.Is(err, dao.ErrNoRows) {
			return NewAppError(http.StatusNotFound, err, "Function not found")
		}
		return NewAppError(http.StatusInternalServerError, err, "Error retrieving function")
	}

	pagingRequest, err := protocol.NewPagingRequest(r.URL.Query())
	if err != nil {
		return NewAppError(http.StatusBadRequest, err, "Error parsing paging request")
	}

	results, err := d.GetMetricsForFunction(fn.GUID, mapping.MapPagingRequestToDAOPagingRequest(&pagingRequest))
	if err != nil {
		return NewAppError(http.StatusInternalServerError, err, "Error retrieving metrics")
	}

	apiResponse := mapping.MapExecutionMetricsToProtocol(&results)
	jsonResponse(w, apiResponse)
	return nil
}
