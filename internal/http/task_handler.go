package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/directus-governance/internal/application"
	"github.com/example/directus-governance/internal/governance"
)

type taskService interface {
	Create(ctx context.Context, params application.CreateTaskParams) (governance.Task, error)
	IssueDirective(ctx context.Context, params application.IssueDirectiveParams) (governance.Task, error)
	Approve(ctx context.Context, params application.TransitionTaskParams) (governance.Task, error)
	Reject(ctx context.Context, params application.TransitionTaskParams) (governance.Task, error)
	Start(ctx context.Context, params application.TransitionTaskParams) (governance.Task, error)
	Complete(ctx context.Context, params application.TransitionTaskParams) (governance.Task, error)
	Delete(ctx context.Context, principal application.Principal, taskID string) error
	List(ctx context.Context, params application.ListTasksParams) ([]governance.Task, error)
	Board(ctx context.Context, principal application.Principal) ([]application.BoardColumn, error)
}

type TaskHandler struct {
	service   taskService
	responder responder
	logger    *slog.Logger
}

func NewTaskHandler(service taskService, logger *slog.Logger) *TaskHandler {
	base := defaultLogger(logger)
	return &TaskHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TaskHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "TaskHandler", operation, attrs...)
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode task request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	task, err := h.service.Create(r.Context(), application.CreateTaskParams{
		Principal: principal,
		Input: application.TaskInput{
			Title:        req.Title,
			Description:  req.Description,
			AssignedToID: req.AssignedToID,
			DueDate:      req.DueDate,
			Priority:     req.Priority,
			Recurrence:   req.Recurrence,
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, taskResponse{Task: task})
}

// IssueDirective handles POST /meetings/{id}/directives.
func (h *TaskHandler) IssueDirective(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req directiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "IssueDirective", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode directive request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	task, err := h.service.IssueDirective(r.Context(), application.IssueDirectiveParams{
		Principal: principal,
		MeetingID: r.PathValue("id"),
		RowID:     strings.TrimSpace(req.RowID),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, taskResponse{Task: task})
}

// Transition returns the handler for POST /tasks/{id}/{action}.
func (h *TaskHandler) Transition(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h == nil || h.service == nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var run func(context.Context, application.TransitionTaskParams) (governance.Task, error)
		switch action {
		case "approve":
			run = h.service.Approve
		case "reject":
			run = h.service.Reject
		case "start":
			run = h.service.Start
		case "complete":
			run = h.service.Complete
		default:
			http.NotFound(w, r)
			return
		}

		// The body is optional; approve and start carry none.
		var req transitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.log(r.Context(), "Transition", "action", action, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode transition request", "error", err)
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}

		principal, _ := PrincipalFromContext(r.Context())
		task, err := run(r.Context(), application.TransitionTaskParams{
			Principal:   principal,
			TaskID:      r.PathValue("id"),
			Reason:      req.Reason,
			Message:     req.Message,
			Attachments: req.Attachments,
		})
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, taskResponse{Task: task})
	}
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, r.PathValue("id")); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// List handles GET /tasks?priority=&status=.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	params := application.ListTasksParams{
		Principal: principal,
		Priority:  governance.Priority(strings.ToUpper(strings.TrimSpace(query.Get("priority")))),
		Status:    governance.TaskStatus(strings.TrimSpace(query.Get("status"))),
	}
	if (params.Priority != "" && !params.Priority.Valid()) || (params.Status != "" && !params.Status.Valid()) {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
		return
	}

	tasks, err := h.service.List(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTasksResponse{Tasks: tasks})
}

// Board handles GET /tasks/board.
func (h *TaskHandler) Board(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	columns, err := h.service.Board(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, boardResponse{Columns: columns})
}

type taskRequest struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	AssignedToID string                `json:"assignedToId"`
	DueDate      string                `json:"dueDate"`
	Priority     governance.Priority   `json:"priority"`
	Recurrence   governance.Recurrence `json:"recurrence"`
}

type directiveRequest struct {
	RowID string `json:"rowId"`
}

type transitionRequest struct {
	Reason      string                  `json:"reason"`
	Message     string                  `json:"message"`
	Attachments []governance.Attachment `json:"attachments"`
}

type taskResponse struct {
	Task governance.Task `json:"task"`
}

type listTasksResponse struct {
	Tasks []governance.Task `json:"tasks"`
}

type boardResponse struct {
	Columns []application.BoardColumn `json:"columns"`
}
