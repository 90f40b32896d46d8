// Package errorresponse implements the error response writer (C8): the
// default error body for each kind in §4.8, the upstream-handler rethrow
// rule for script-runtime-failure, and the optional errorResponseScript
// override hook.
package errorresponse

import (
	"context"
	"fmt"

	"github.com/kestrun/kestrun/internal/apperror"
	"github.com/kestrun/kestrun/internal/contenttype"
	"github.com/kestrun/kestrun/internal/response"
)

// Hook runs a host-registered errorResponseScript, per §4.8's
// custom-override rule. The hook the host builds (errorhook.go) leases its
// own Managed-family context from the pool for each call; it does not run
// on the failing route's context. A nil error and non-nil model means the
// hook's effect replaces the default error body.
type Hook func(ctx context.Context, statusCode int, errorMessage string, cause error) (*response.Model, error)

// Config configures one Writer.
type Config struct {
	// HasUpstreamHandler mirrors the host's configured error-handling
	// middleware: when true, script-runtime-failure is rethrown instead
	// of written, so that middleware can render its own error page.
	HasUpstreamHandler bool
	// Hook is the optional errorResponseScript override, run when set and
	// the response has not started, for every kind that gets a written
	// body: not for request-cancelled, nor for a rethrown
	// script-runtime-failure.
	Hook Hook
}

// Writer is C8.
type Writer struct {
	Config Config
}

// New creates a Writer with cfg.
func New(cfg Config) *Writer {
	return &Writer{Config: cfg}
}

// Write implements §4.8. It returns nil once err has been fully handled
// (a body was written, or the kind is silently swallowed); it returns err
// unchanged when the caller configured an upstream handler and err is a
// script-runtime-failure, so that handler can take over.
func (w *Writer) Write(ctx context.Context, rw response.ResponseWriter, err error) error {
	if err == nil {
		return nil
	}

	if apperror.IsCancellation(err) {
		return nil
	}

	appErr, ok := err.(*apperror.AppError)
	if !ok {
		appErr = apperror.New(apperror.KindScriptRuntimeFailure, err.Error(), nil).WithCause(err)
	}

	if appErr.Kind == apperror.KindScriptRuntimeFailure && w.Config.HasUpstreamHandler {
		return err
	}

	if rw.Written() {
		return nil
	}

	if w.Config.Hook != nil {
		model, hookErr := w.Config.Hook(ctx, appErr.Status, appErr.Message, appErr)
		if hookErr == nil && model != nil {
			return response.Apply(rw, model)
		}
	}

	return response.Apply(rw, defaultErrorModel(appErr))
}

// defaultErrorModel builds the plain JSON default body
// {status, error, message, details} C8 falls back to when no hook is
// registered, or the hook itself failed.
func defaultErrorModel(appErr *apperror.AppError) *response.Model {
	model := response.NewModel()
	model.Status = appErr.Status
	model.ContentType = "application/json"

	body, err := contenttype.EncodeArbitraryJSON(map[string]any{
		"status":  appErr.Status,
		"error":   string(appErr.Kind),
		"message": appErr.Message,
		"details": appErr.Details,
	})
	if err != nil {
		body = []byte(fmt.Sprintf(`{"status":%d,"error":"script-runtime-failure","message":"failed to serialize error body"}`, appErr.Status))
	}

	model.Body = body

	return model
}
