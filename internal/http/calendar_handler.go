package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/directus-governance/internal/application"
	"github.com/example/directus-governance/internal/governance"
)

type calendarService interface {
	Create(ctx context.Context, params application.CreateCalendarParams) (governance.CustomCalendar, error)
	List(ctx context.Context, principal application.Principal) ([]governance.CustomCalendar, error)
	Meetings(ctx context.Context, principal application.Principal, calendarID string) ([]governance.Meeting, error)
}

type CalendarHandler struct {
	service   calendarService
	responder responder
	logger    *slog.Logger
}

func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	return &CalendarHandler{service: service, responder: newResponder(base), logger: base}
}

// Create handles POST /calendars.
func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req calendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlerLogger(r.Context(), h.logger, "CalendarHandler", "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode calendar request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	calendar, err := h.service.Create(r.Context(), application.CreateCalendarParams{
		Principal: principal,
		Name:      req.Name,
		UserIDs:   req.UserIDs,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, calendarResponse{Calendar: calendar})
}

// List handles GET /calendars.
func (h *CalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	calendars, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if calendars == nil {
		calendars = []governance.CustomCalendar{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listCalendarsResponse{Calendars: calendars})
}

// Meetings handles GET /calendars/{id}/meetings.
func (h *CalendarHandler) Meetings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	meetings, err := h.service.Meetings(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if meetings == nil {
		meetings = []governance.Meeting{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMeetingsResponse{Meetings: meetings})
}

type calendarRequest struct {
	Name    string   `json:"name"`
	UserIDs []string `json:"userIds"`
}

type calendarResponse struct {
	Calendar governance.CustomCalendar `json:"calendar"`
}

type listCalendarsResponse struct {
	Calendars []governance.CustomCalendar `json:"calendars"`
}
