package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/directus-governance/internal/governance"
)

// Mirror keeps a DocumentStore in step with the application state. Every key
// holds the full JSON serialization of one collection.
type Mirror struct {
	store  DocumentStore
	logger *slog.Logger
}

// NewMirror wraps store.
func NewMirror(store DocumentStore, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{store: store, logger: logger}
}

// Load reads every key into a state built on seed. Keys that are absent, fail
// to parse or fail their digest keep the seed value and are reported back.
// Backend failures other than those abort the load.
func (m *Mirror) Load(ctx context.Context, seed governance.State) (governance.State, []governance.Key, error) {
	if m == nil || m.store == nil {
		return governance.State{}, nil, fmt.Errorf("mirror is not configured")
	}

	state := seed.Clone()
	var fallbacks []governance.Key

	for _, key := range governance.Keys() {
		body, err := m.store.Get(ctx, string(key))
		switch {
		case errors.Is(err, ErrNotFound):
			fallbacks = append(fallbacks, key)
			continue
		case errors.Is(err, ErrCorrupt):
			m.logger.Warn("stored document failed its digest, using seed", slog.String("key", string(key)))
			fallbacks = append(fallbacks, key)
			continue
		case err != nil:
			return governance.State{}, nil, fmt.Errorf("load %s: %w", key, err)
		}

		if err := decodeKey(&state, key, body); err != nil {
			m.logger.Warn("stored document is unreadable, using seed",
				slog.String("key", string(key)),
				slog.Any("error", err),
			)
			fallbacks = append(fallbacks, key)
		}
	}

	return state, fallbacks, nil
}

// StateChanged writes the named keys from state. A nil current user removes
// the user document.
func (m *Mirror) StateChanged(ctx context.Context, keys []governance.Key, state governance.State) error {
	if m == nil || m.store == nil {
		return fmt.Errorf("mirror is not configured")
	}

	var errs []error
	for _, key := range keys {
		if key == governance.KeyCurrentUser && state.CurrentUser == nil {
			if err := m.store.Delete(ctx, string(key)); err != nil {
				errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
			}
			continue
		}

		body, err := encodeKey(state, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode %s: %w", key, err))
			continue
		}
		if err := m.store.Put(ctx, string(key), body); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// SaveAll writes every key.
func (m *Mirror) SaveAll(ctx context.Context, state governance.State) error {
	return m.StateChanged(ctx, governance.Keys(), state)
}

func encodeKey(s governance.State, key governance.Key) ([]byte, error) {
	switch key {
	case governance.KeyMeetings:
		return json.Marshal(nonNil(s.Meetings))
	case governance.KeyTasks:
		return json.Marshal(nonNil(s.Tasks))
	case governance.KeyAuditLogs:
		return json.Marshal(nonNil(s.AuditLogs))
	case governance.KeyCurrentUser:
		return json.Marshal(s.CurrentUser)
	case governance.KeyNotifications:
		return json.Marshal(nonNil(s.Notifications))
	case governance.KeyUsers:
		return json.Marshal(nonNil(s.Users))
	case governance.KeyDesignations:
		return json.Marshal(nonNil(s.Designations))
	case governance.KeyCustomCalendars:
		return json.Marshal(nonNil(s.CustomCalendars))
	case governance.KeyBranding:
		return json.Marshal(s.Branding)
	default:
		return nil, fmt.Errorf("unknown key %q", key)
	}
}

func decodeKey(s *governance.State, key governance.Key, body []byte) error {
	switch key {
	case governance.KeyMeetings:
		return decodeInto(body, &s.Meetings)
	case governance.KeyTasks:
		return decodeInto(body, &s.Tasks)
	case governance.KeyAuditLogs:
		return decodeInto(body, &s.AuditLogs)
	case governance.KeyCurrentUser:
		var u *governance.User
		if err := json.Unmarshal(body, &u); err != nil {
			return err
		}
		s.CurrentUser = u
		return nil
	case governance.KeyNotifications:
		return decodeInto(body, &s.Notifications)
	case governance.KeyUsers:
		return decodeInto(body, &s.Users)
	case governance.KeyDesignations:
		return decodeInto(body, &s.Designations)
	case governance.KeyCustomCalendars:
		return decodeInto(body, &s.CustomCalendars)
	case governance.KeyBranding:
		return decodeInto(body, &s.Branding)
	default:
		return fmt.Errorf("unknown key %q", key)
	}
}

// decodeInto only assigns dst when the whole body parses.
func decodeInto[T any](body []byte, dst *T) error {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
