package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/directus-governance/internal/governance"
)

// notify prepends a notification for recipient. Blank recipients are ignored.
func notify(s *governance.State, id string, now time.Time, recipient string, kind governance.NotificationType, title, message string) {
	if recipient == "" {
		return
	}
	n := governance.Notification{
		ID:          id,
		RecipientID: recipient,
		Type:        kind,
		Title:       title,
		Message:     message,
		Timestamp:   governance.FormatTimestamp(now),
	}
	s.Notifications = append([]governance.Notification{n}, s.Notifications...)
}

// NotificationService manages the caller's notification tray.
type NotificationService struct {
	store  *Store
	logger *slog.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(store *Store) *NotificationService {
	return NewNotificationServiceWithLogger(store, nil)
}

// NewNotificationServiceWithLogger constructs a NotificationService with a specified logger.
func NewNotificationServiceWithLogger(store *Store, logger *slog.Logger) *NotificationService {
	return &NotificationService{store: store, logger: defaultLogger(logger)}
}

func (s *NotificationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "NotificationService", operation, attrs...)
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, principal Principal) ([]governance.Notification, error) {
	if s == nil {
		return nil, fmt.Errorf("NotificationService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	state := s.store.Snapshot()
	out := make([]governance.Notification, 0)
	for _, n := range state.Notifications {
		if n.RecipientID == principal.UserID {
			out = append(out, n)
		}
	}
	return out, nil
}

// Clear removes one of the caller's notifications.
func (s *NotificationService) Clear(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("NotificationService is nil")
	}

	logger := s.loggerWith(ctx, "Clear", "user_id", principal.UserID, "notification_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to clear notification", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "notification cleared")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	err = s.store.Mutate(ctx, []governance.Key{governance.KeyNotifications}, func(st *governance.State) error {
		for i, n := range st.Notifications {
			if n.ID != id || n.RecipientID != principal.UserID {
				continue
			}
			st.Notifications = append(st.Notifications[:i], st.Notifications[i+1:]...)
			return nil
		}
		return ErrNotFound
	})
	return
}

// MarkAllRead flags every notification of the caller as read and reports how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, principal Principal) (changed int, err error) {
	if s == nil {
		err = fmt.Errorf("NotificationService is nil")
		return
	}
	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	err = s.store.Mutate(ctx, []governance.Key{governance.KeyNotifications}, func(st *governance.State) error {
		for i := range st.Notifications {
			n := &st.Notifications[i]
			if n.RecipientID == principal.UserID && !n.Read {
				n.Read = true
				changed++
			}
		}
		return nil
	})
	if err != nil {
		s.loggerWith(ctx, "MarkAllRead", "user_id", principal.UserID).
			ErrorContext(ctx, "failed to mark notifications read", "error", err, "error_kind", ErrorKind(err))
	}
	return
}
