package http

import (
	"log/slog"
	"net/http"
)

type RouterConfig struct {
	Auth          *AuthHandler
	Meetings      *MeetingHandler
	Tasks         *TaskHandler
	Users         *UserHandler
	Calendars     *CalendarHandler
	Notifications *NotificationHandler
	System        *SystemHandler
	Overview      *OverviewHandler

	// Sessions guards every route except login and the public branding.
	Sessions SessionValidator
	// LoginLimit wraps POST /sessions when set.
	LoginLimit func(http.Handler) http.Handler
	Middleware []func(http.Handler) http.Handler
	Logger     *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.Sessions != nil {
		guard := RequireSession(cfg.Sessions, defaultLogger(cfg.Logger))
		protect = func(h http.HandlerFunc) http.Handler { return guard(h) }
	}

	if cfg.Auth != nil {
		var login http.Handler = http.HandlerFunc(cfg.Auth.CreateSession)
		if cfg.LoginLimit != nil {
			login = cfg.LoginLimit(login)
		}
		mux.Handle("POST /sessions", login)
		mux.Handle("DELETE /sessions/current", protect(cfg.Auth.DeleteCurrentSession))
	}

	if h := cfg.Meetings; h != nil {
		mux.Handle("GET /meetings", protect(h.List))
		mux.Handle("POST /meetings", protect(h.Create))
		mux.Handle("GET /meetings/occurrences", protect(h.Occurrences))
		mux.Handle("GET /meetings/{id}", protect(h.Get))
		mux.Handle("PUT /meetings/{id}", protect(h.Update))
		mux.Handle("PUT /meetings/{id}/minutes", protect(h.RecordMinutes))
		mux.Handle("POST /meetings/{id}/signatures", protect(h.Sign))
		mux.Handle("GET /meetings/{id}/conflicts", protect(h.Conflicts))
	}

	if h := cfg.Tasks; h != nil {
		mux.Handle("GET /tasks", protect(h.List))
		mux.Handle("POST /tasks", protect(h.Create))
		mux.Handle("GET /tasks/board", protect(h.Board))
		mux.Handle("DELETE /tasks/{id}", protect(h.Delete))
		for _, action := range []string{"approve", "reject", "start", "complete"} {
			mux.Handle("POST /tasks/{id}/"+action, protect(h.Transition(action)))
		}
		mux.Handle("POST /meetings/{id}/directives", protect(h.IssueDirective))
	}

	if h := cfg.Users; h != nil {
		mux.Handle("GET /users", protect(h.List))
		mux.Handle("PUT /users/{id}", protect(h.Upsert))
		mux.Handle("GET /designations", protect(h.Designations))
	}

	if h := cfg.Calendars; h != nil {
		mux.Handle("GET /calendars", protect(h.List))
		mux.Handle("POST /calendars", protect(h.Create))
		mux.Handle("GET /calendars/{id}/meetings", protect(h.Meetings))
	}

	if h := cfg.Notifications; h != nil {
		mux.Handle("GET /notifications", protect(h.List))
		mux.Handle("POST /notifications/read", protect(h.MarkAllRead))
		mux.Handle("DELETE /notifications/{id}", protect(h.Clear))
	}

	if h := cfg.System; h != nil {
		mux.HandleFunc("GET /system/branding", h.Branding)
		mux.Handle("PUT /system/branding", protect(h.UpdateBranding))
		mux.Handle("GET /system/export", protect(h.Export))
		mux.Handle("POST /system/import", protect(h.Import))
		mux.Handle("POST /system/reset", protect(h.Reset))
	}

	if h := cfg.Overview; h != nil {
		mux.Handle("GET /audit", protect(h.AuditLogs))
		mux.Handle("GET /dashboard", protect(h.Dashboard))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}
