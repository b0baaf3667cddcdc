package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/directus-governance/internal/application"
	"github.com/example/directus-governance/internal/governance"
)

var (
	errBadRequestBody      = errors.New("request body is not valid JSON")
	errMissingSessionToken = errors.New("a session token is required")
	errInvalidQuery        = errors.New("query parameters are not valid")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps service errors onto status codes. ErrUnauthorized is
// checked first because refused task transitions also wrap ErrNotAssignee.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "You are not allowed to perform this operation.",
		})
	case errors.Is(err, application.ErrSessionExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_SESSION_EXPIRED", Message: "The session has expired."})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_INVALID_CREDENTIALS", Message: "Unknown user id or access key too short."})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "The requested resource does not exist."})
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "The request contains invalid fields.",
			Errors:  vErr.FieldErrors,
		})
	case errors.Is(err, governance.ErrReasonRequired):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "The request contains invalid fields.",
			Errors:  map[string]string{"reason": "required"},
		})
	case governance.IsPreconditionError(err), errors.Is(err, application.ErrConflict):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: preconditionCode(err), Message: err.Error()})
	case errors.Is(err, application.ErrConfirmationRequired):
		r.writeJSON(ctx, w, http.StatusPreconditionRequired, errorResponse{Message: "This operation must be confirmed."})
	case errors.Is(err, application.ErrImportParse):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{ErrorCode: "IMPORT_PARSE", Message: err.Error()})
	case errors.Is(err, application.ErrPersistence):
		r.loggerFor(ctx).ErrorContext(ctx, "state committed but not persisted", "error", err)
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{ErrorCode: "PERSISTENCE", Message: "The change was applied but could not be saved."})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "Internal server error."})
	}
}

func preconditionCode(err error) string {
	switch {
	case errors.Is(err, governance.ErrMeetingLocked), errors.Is(err, governance.ErrMeetingFinalized):
		return "MEETING_LOCKED"
	case errors.Is(err, governance.ErrAlreadySigned):
		return "ALREADY_SIGNED"
	case errors.Is(err, governance.ErrNotAttendee):
		return "NOT_ATTENDEE"
	case errors.Is(err, governance.ErrInvalidTransition):
		return "INVALID_TRANSITION"
	default:
		return "CONFLICT"
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
