package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/directus-governance/internal/application"
	"github.com/example/directus-governance/internal/governance"
	"github.com/example/directus-governance/internal/scheduler"
)

type meetingService interface {
	Schedule(ctx context.Context, params application.ScheduleMeetingParams) (application.MeetingResult, error)
	Update(ctx context.Context, params application.UpdateMeetingParams) (application.MeetingResult, error)
	RecordMinutes(ctx context.Context, params application.RecordMinutesParams) (governance.Meeting, error)
	Sign(ctx context.Context, principal application.Principal, meetingID string) (governance.Meeting, error)
	Get(ctx context.Context, principal application.Principal, meetingID string) (governance.Meeting, error)
	List(ctx context.Context, params application.ListMeetingsParams) ([]governance.Meeting, error)
	Occurrences(ctx context.Context, params application.OccurrencesParams) ([]application.MeetingOccurrence, error)
	Conflicts(ctx context.Context, principal application.Principal, meetingID string) ([]scheduler.Conflict, error)
}

type MeetingHandler struct {
	service   meetingService
	responder responder
	logger    *slog.Logger
}

func NewMeetingHandler(service meetingService, logger *slog.Logger) *MeetingHandler {
	base := defaultLogger(logger)
	return &MeetingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MeetingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "MeetingHandler", operation, attrs...)
}

// Create handles POST /meetings.
func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode meeting request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.Schedule(r.Context(), application.ScheduleMeetingParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newMeetingResponse(result))
}

// Update handles PUT /meetings/{id}.
func (h *MeetingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode meeting request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.Update(r.Context(), application.UpdateMeetingParams{
		Principal: principal,
		MeetingID: r.PathValue("id"),
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, newMeetingResponse(result))
}

// RecordMinutes handles PUT /meetings/{id}/minutes. The body is the minutes
// value itself, either tagged or a legacy string.
func (h *MeetingHandler) RecordMinutes(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var minutes governance.Minutes
	if err := json.NewDecoder(r.Body).Decode(&minutes); err != nil {
		h.log(r.Context(), "RecordMinutes", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode minutes", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	meeting, err := h.service.RecordMinutes(r.Context(), application.RecordMinutesParams{
		Principal: principal,
		MeetingID: r.PathValue("id"),
		Minutes:   minutes,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingResponse{Meeting: meeting, Warnings: []scheduler.Conflict{}})
}

// Sign handles POST /meetings/{id}/signatures.
func (h *MeetingHandler) Sign(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	meeting, err := h.service.Sign(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Sign", "meeting_id", meeting.ID).InfoContext(r.Context(), "signature recorded", "finalized", meeting.IsFinalized)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingResponse{Meeting: meeting, Warnings: []scheduler.Conflict{}})
}

// Get handles GET /meetings/{id}.
func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	meeting, err := h.service.Get(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingResponse{Meeting: meeting, Warnings: []scheduler.Conflict{}})
}

// List handles GET /meetings.
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	meetings, err := h.service.List(r.Context(), application.ListMeetingsParams{
		Principal:  principal,
		View:       application.MeetingView(strings.ToLower(strings.TrimSpace(query.Get("view")))),
		Department: governance.Department(strings.TrimSpace(query.Get("department"))),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMeetingsResponse{Meetings: meetings})
}

// Conflicts handles GET /meetings/{id}/conflicts.
func (h *MeetingHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	warnings, err := h.service.Conflicts(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, conflictsResponse{Warnings: nonNilConflicts(warnings)})
}

// Occurrences handles GET /meetings/occurrences?from=&to=.
func (h *MeetingHandler) Occurrences(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params, err := buildOccurrenceParams(r.URL.Query(), principal)
	if err != nil {
		h.log(r.Context(), "Occurrences", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid occurrence window", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
		return
	}

	occurrences, err := h.service.Occurrences(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, occurrencesResponse{Occurrences: occurrences})
}

type meetingRequest struct {
	Title             string                        `json:"title"`
	Description       string                        `json:"description"`
	StartTime         string                        `json:"startTime"`
	EndTime           string                        `json:"endTime"`
	Location          string                        `json:"location"`
	Department        governance.Department         `json:"department"`
	Team              governance.Team               `json:"team"`
	Region            governance.Region             `json:"region"`
	LeaderID          string                        `json:"leaderId"`
	Attendees         []string                      `json:"attendees"`
	ExternalAttendees []governance.ExternalAttendee `json:"externalAttendees"`
	Attachments       []governance.Attachment       `json:"attachments"`
	Minutes           *governance.Minutes           `json:"minutes"`
	IsCustomRoom      bool                          `json:"isCustomRoom"`
	Type              governance.MeetingType        `json:"type"`
	Recurrence        governance.Recurrence         `json:"recurrence"`
}

func (r meetingRequest) toInput() application.MeetingInput {
	input := application.MeetingInput{
		Title:             r.Title,
		Description:       r.Description,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		Location:          r.Location,
		Department:        r.Department,
		Team:              r.Team,
		Region:            r.Region,
		LeaderID:          r.LeaderID,
		Attendees:         append([]string(nil), r.Attendees...),
		ExternalAttendees: r.ExternalAttendees,
		Attachments:       r.Attachments,
		IsCustomRoom:      r.IsCustomRoom,
		Type:              r.Type,
		Recurrence:        r.Recurrence,
	}
	// Absent minutes keep whatever the meeting already holds on update.
	if r.Minutes != nil {
		input.Minutes = *r.Minutes
	}
	return input
}

type meetingResponse struct {
	Meeting  governance.Meeting   `json:"meeting"`
	Warnings []scheduler.Conflict `json:"warnings"`
}

func newMeetingResponse(result application.MeetingResult) meetingResponse {
	return meetingResponse{Meeting: result.Meeting, Warnings: nonNilConflicts(result.Warnings)}
}

type listMeetingsResponse struct {
	Meetings []governance.Meeting `json:"meetings"`
}

type conflictsResponse struct {
	Warnings []scheduler.Conflict `json:"warnings"`
}

type occurrencesResponse struct {
	Occurrences []application.MeetingOccurrence `json:"occurrences"`
}

func nonNilConflicts(warnings []scheduler.Conflict) []scheduler.Conflict {
	if warnings == nil {
		return []scheduler.Conflict{}
	}
	return warnings
}

func buildOccurrenceParams(values url.Values, principal application.Principal) (application.OccurrencesParams, error) {
	params := application.OccurrencesParams{Principal: principal}
	var err error
	if params.From, err = parseQueryTime(values.Get("from")); err != nil {
		return params, err
	}
	if params.To, err = parseQueryTime(values.Get("to")); err != nil {
		return params, err
	}
	return params, nil
}

// parseQueryTime accepts the stored timestamp layouts; blank means unset.
func parseQueryTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	return governance.ParseTimestamp(value)
}
