package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/neritic/functiond/dao"
)

func (h AppServer) deleteFunction(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {

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
	fn, err := d.GetFunction(guid)
	if err != nil {
		if errors.Is(err, dao.ErrNoRows) {
			return NewAppError(http.StatusNotFound, err, "Function not found")
		}
		return NewAppError(http.StatusInternalServerError, err, "Error retrieving function")
	}

	if err := d.DeleteFunction(fn, caller.Identity); err != nil {
		if errors.Is(err, dao.ErrNoRows) {
			return NewAppError(http.StatusNotFound, err, "Function not found")
		}
		return NewAppError(http.StatusInternalServerError, err, "Error deleting function")
	}
	h.EvictFunction(guid)

	gem.Action = "delete"
	gem.Payload.FunctionID = fn.GUID
	gem.Payload.FunctionName = fn.Name
	h.publishSuccess(gem, http.StatusOK)

	jsonResponse(w, map[string]string{"message": "Function deleted"})
	return nil
}
