package application

import (
	"log/slog"
	"time"
)

// ServicesConfig carries the shared dependencies of every service.
type ServicesConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	IDGenerator   func() string
	Now           func() time.Time
	Logger        *slog.Logger
}

// Services bundles the lifecycle services operating on one Store.
type Services struct {
	Store         *Store
	Auth          *AuthService
	Meetings      *MeetingService
	Tasks         *TaskService
	Personnel     *PersonnelService
	Calendars     *CalendarService
	Notifications *NotificationService
	Audit         *AuditService
	System        *SystemService
	Dashboard     *DashboardService
}

// NewServices wires every service against store.
func NewServices(store *Store, cfg ServicesConfig) *Services {
	ids := defaultIDGenerator(cfg.IDGenerator)
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := defaultLogger(cfg.Logger)

	return &Services{
		Store:         store,
		Auth:          NewAuthServiceWithLogger(store, cfg.SessionSecret, cfg.SessionTTL, ids, now, logger),
		Meetings:      NewMeetingServiceWithLogger(store, ids, now, logger),
		Tasks:         NewTaskServiceWithLogger(store, ids, now, logger),
		Personnel:     NewPersonnelServiceWithLogger(store, ids, now, logger),
		Calendars:     NewCalendarServiceWithLogger(store, ids, now, logger),
		Notifications: NewNotificationServiceWithLogger(store, logger),
		Audit:         NewAuditServiceWithLogger(store, logger),
		System:        NewSystemServiceWithLogger(store, ids, now, logger),
		Dashboard:     NewDashboardService(store, now),
	}
}
