package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/mapping"
	"github.com/neritic/functiond/protocol"
)

func (h AppServer) getFunctionMetrics(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {

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

	metric, err := d.GetLatestMetricForFunction(fn.GUID)
	if err != nil {
		if errors.Is(err, dao.ErrNoRows) {
			return NewAppError(http.StatusNotFound, err, fmt.Sprintf("No metrics found for function %s", fn.Name))
		}
		return NewAppError(http.StatusInternalServerError, err, "Error retrieving metrics")
	}

	apiResponse := protocol.FunctionMetricsResponse{Metrics: mapping.MapExecutionMetricToProtocol(&metric)}
	jsonResponse(w, apiResponse)
	return nil
}
