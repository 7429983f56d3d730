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

func (h AppServer) createFunction(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {

	caller, ok := CallerFromContext(ctx)
	if !ok {
		return NewAppError(http.StatusInternalServerError, errors.New("Could not get caller from context"), "Invalid caller.")
	}
	gem, _ := GEMFromContext(ctx)
	d := DAOFromContext(ctx)

	var requestFunction protocol.CreateFunctionRequest
	if err := util.FullDecode(r.Body, &requestFunction); err != nil {
		return NewAppError(http.StatusBadRequest, err, "Error parsing JSON")
	}
	fn, err := mapping.MapCreateFunctionRequestToModel(&requestFunction)
	if err != nil {
		return NewAppError(http.StatusBadRequest, err, err.Error())
	}
	fn.CreatedBy = caller.Identity
	fn.ModifiedBy = caller.Identity

	if existing, err := d.GetFunctionByRoute(fn.Route); err == nil {
		return NewAppError(http.StatusConflict, nil,
			"Route "+fn.Route+" is already registered to function "+existing.GUID)
	} else if err != dao.ErrNoRows {
		return NewAppError(http.StatusInternalServerError, err, "Error checking route")
	}

	createdFunction, err := d.CreateFunction(&fn)
	if err != nil {
		return NewAppError(http.StatusInternalServerError, err, "Error storing function")
	}

	gem.Action = "create"
	gem.Payload.FunctionID = createdFunction.GUID
	gem.Payload.FunctionName = createdFunction.Name
	h.publishSuccess(gem, http.StatusCreated)

	apiResponse := protocol.CreatedFunctionResponse{
		Message: "Function created",
		ID:      createdFunction.GUID,
	}
	jsonResponseWithCode(w, http.StatusCreated, apiResponse)
	return nil
}
