package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/mapping"
)

func (h AppServer) getFunction(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {

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

	apiResponse := mapping.MapFunctionToProtocol(&fn)
	jsonResponse(w, apiResponse)
	return nil
}

// functionGUIDFromContext resolves the functionId capture group set by the
// route regex.
func functionGUIDFromContext(ctx context.Context) (string, *AppError) {
	captured, ok := CaptureGroupsFromContext(ctx)
	if !ok {
		return "", NewAppError(http.StatusInternalServerError, errors.New("Could not get capture groups from context"), "No capture groups.")
	}
	guid, ok := captured["functionId"]
	if !ok || guid == "" {
		return "", NewAppError(http.StatusBadRequest, errors.New("Could not extract function id from URI"), "URI: "+guid)
	}
	return guid, nil
}
