package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/directus-governance/internal/application"
	"github.com/example/directus-governance/internal/governance"
)

type personnelService interface {
	Directory(ctx context.Context, principal application.Principal, params application.DirectoryParams) ([]governance.User, error)
	Upsert(ctx context.Context, params application.UpsertUserParams) (governance.User, error)
	Designations(ctx context.Context) ([]string, error)
}

type UserHandler struct {
	service   personnelService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service personnelService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

// List handles GET /users?q=&department=.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	users, err := h.service.Directory(r.Context(), principal, application.DirectoryParams{
		Query:      query.Get("q"),
		Department: governance.Department(strings.TrimSpace(query.Get("department"))),
	})
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "directory lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listUsersResponse{Users: users})
}

// Upsert handles PUT /users/{id}. The path id wins over any id in the body.
func (h *UserHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	userID := r.PathValue("id")

	var req governance.User
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Upsert", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode user request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	req.ID = userID

	logger := h.log(r.Context(), "Upsert", "principal_id", principal.UserID, "target_id", userID)
	user, err := h.service.Upsert(r.Context(), application.UpsertUserParams{Principal: principal, User: req})
	if err != nil {
		logger.ErrorContext(r.Context(), "personnel update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "personnel record saved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: user})
}

// Designations handles GET /designations.
func (h *UserHandler) Designations(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	designations, err := h.service.Designations(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, designationsResponse{Designations: designations})
}

type userResponse struct {
	User governance.User `json:"user"`
}

type listUsersResponse struct {
	Users []governance.User `json:"users"`
}

type designationsResponse struct {
	Designations []string `json:"designations"`
}
