package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/executor"
	"github.com/neritic/functiond/protocol"
)

func (h AppServer) runFunction(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {

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

	gem.Action = "execute"
	gem.Payload.FunctionID = fn.GUID
	gem.Payload.FunctionName = fn.Name
	gem.Payload.Runtime = fn.Runtime

	metric, err := h.Engine.Run(ctx, fn, "")
	if err != nil {
		herr := appErrorFromRunError(err)
		h.publishError(gem, herr)
		return herr
	}
	h.publishSuccess(gem, http.StatusOK)

	apiResponse := protocol.ExecutionResult{Output: metric.Stdout.String}
	jsonResponse(w, apiResponse)
	return nil
}

// appErrorFromRunError maps execution engine sentinels onto http statuses.
// A timeout surfaces as 408 so clients can distinguish their own code
// exceeding its budget from a platform fault.
func appErrorFromRunError(err error) *AppError {
	switch {
	case errors.Is(err, executor.ErrNoCode):
		return NewAppError(http.StatusBadRequest, err, "No code provided in function settings")
	case errors.Is(err, executor.ErrUnsupportedLanguage), errors.Is(err, executor.ErrUnsupportedRuntime):
		return NewAppError(http.StatusBadRequest, err, err.Error())
	case errors.Is(err, executor.ErrExecutionTimeout):
		return NewAppError(http.StatusRequestTimeout, err, "Function execution timed out")
	default:
		return NewAppError(http.StatusInternalServerError, err, "Execution failed: "+err.Error())
	}
}
