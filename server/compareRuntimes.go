package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/protocol"
)

// compareRuntimes executes the same function under the standard and the
// gVisor runtime and reports both measurements side by side.
func (h AppServer) compareRuntimes(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {

	gem, _ := GEMFromContext(ctx)

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

	gem.Action = "compare"
	gem.Payload.FunctionID = fn.GUID
	gem.Payload.FunctionName = fn.Name

	comparison := make(map[string]protocol.RuntimeResult)
	for _, runtime := range []string{models.RuntimeRunc, models.RuntimeRunsc} {
		metric, err := h.Engine.Run(ctx, fn, runtime)
		if err != nil {
			herr := appErrorFromRunError(err)
			h.publishError(gem, herr)
			return herr
		}
		comparison[runtime] = protocol.RuntimeResult{
			ResponseTime: metric.ResponseTime,
			MemoryUsage:  metric.MemoryUsage,
			CPUUsage:     metric.CPUUsage,
			Output:       metric.Stdout.String,
		}
	}
	h.publishSuccess(gem, http.StatusOK)

	apiResponse := protocol.RuntimeComparison{Comparison: comparison}
	jsonResponse(w, apiResponse)
	return nil
}
