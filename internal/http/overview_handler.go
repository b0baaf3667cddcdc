package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/directus-governance/internal/application"
	"github.com/example/directus-governance/internal/governance"
)

type auditService interface {
	List(ctx context.Context, principal application.Principal, filter application.AuditFilter) ([]governance.AuditLog, error)
}

type dashboardService interface {
	Stats(ctx context.Context, principal application.Principal) (application.DashboardStats, error)
}

// OverviewHandler serves the read-only summaries: the audit trail and the dashboard.
type OverviewHandler struct {
	audit     auditService
	dashboard dashboardService
	responder responder
	logger    *slog.Logger
}

func NewOverviewHandler(audit auditService, dashboard dashboardService, logger *slog.Logger) *OverviewHandler {
	base := defaultLogger(logger)
	return &OverviewHandler{audit: audit, dashboard: dashboard, responder: newResponder(base), logger: base}
}

// AuditLogs handles GET /audit?action=&userId=.
func (h *OverviewHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.audit == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	logs, err := h.audit.List(r.Context(), principal, application.AuditFilter{
		Action: governance.ActionType(strings.TrimSpace(query.Get("action"))),
		UserID: strings.TrimSpace(query.Get("userId")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, auditResponse{Logs: logs})
}

// Dashboard handles GET /dashboard.
func (h *OverviewHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.dashboard == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	stats, err := h.dashboard.Stats(r.Context(), principal)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "OverviewHandler", "Dashboard").ErrorContext(r.Context(), "failed to compute dashboard", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, stats)
}

type auditResponse struct {
	Logs []governance.AuditLog `json:"logs"`
}
