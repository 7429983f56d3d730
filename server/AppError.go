package server

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// AppError encapsulates an error for the app to handle, containing the
// desired http status code, a message for the client, and the location in
// code it originated from.
type AppError struct {
	Code   int
	Error  error
	Msg    string
	File   string
	Line   int
	Fields []zap.Field
}

func do404(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	caller, _ := CallerFromContext(ctx)
	uri := r.URL.Path
	msg := "Resource not found"
	return NewAppError(http.StatusNotFound, errors.New(msg),
		msg, zap.String("identity", caller.Identity), zap.String("uri", uri))
}
