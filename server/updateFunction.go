package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/mapping"
	"github.com/neritic/functiond/protocol"
	"github.com/neritic/functiond/util"
)

func (h AppServer) updateFunction(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {

	caller, ok := CallerFromContext(ctx)
	if !ok {
		return NewAppError(http.StatusInternalServerError, errors.New("Could not get caller from context"), "Invalid caller.")
	}
	gem, _ := GEMFromContext(ctx)
	d := DAOFromContext(ctx)

	guid, herr := functionGUIDFromContext(ctx)
	if herr != nil {
		return herr
	}

	var requestFunction protocol.UpdateFunctionRequest
	if err := util.FullDecode(r.Body, &requestFunction); err != nil {
		return NewAppError(http.StatusBadRequest, err, "Error parsing JSON")
	}
	if requestFunction.ID != "" && requestFunction.ID != guid {
		return NewAppError(http.StatusBadRequest, errors.New("URI and body id do not match"), "Bad request")
	}
	if requestFunction.ChangeToken == "" {
		return NewAppError(http.StatusBadRequest, errors.New("changeToken is required"), "Missing changeToken")
	}
	fn, err := mapping.MapUpdateFunctionRequestToModel(&requestFunction)
	if err != nil {
		return NewAppError(http.StatusBadRequest, err, err.Error())
	}
	fn.GUID = guid
	fn.ModifiedBy = caller.Identity

	if existing, err := d.GetFunctionByRoute(fn.Route); err == nil {
		if existing.GUID != guid {
			return NewAppError(http.StatusConflict, nil,
				"Route "+fn.Route+" is already registered to function "+existing.GUID)
		}
	} else if !errors.Is(err, dao.ErrNoRows) {
		return NewAppError(http.StatusInternalServerError, err, "Error checking route")
	}

	updatedFunction, err := d.UpdateFunction(&fn)
	if err != nil {
		switch {
		case errors.Is(err, dao.ErrNoRows):
			return NewAppError(http.StatusNotFound, err, "Function not found")
		case errors.Is(err, dao.ErrChangeTokenMismatch):
			return NewAppError(http.StatusConflict, err, "The changeToken does not match the expected value. Fetch the function and retry.")
		default:
			return NewAppError(http.StatusInternalServerError, err, "Error updating function")
		}
	}
	h.EvictFunction(guid)

	gem.Action = "update"
	gem.Payload.FunctionID = updatedFunction.GUID
	gem.Payload.FunctionName = updatedFunction.Name
	h.publishSuccess(gem, http.StatusOK)

	apiResponse := mapping.MapFunctionToProtocol(&updatedFunction)
	jsonResponse(w, apiResponse)
	return nil
}
