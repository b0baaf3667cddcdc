package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/directus-governance/internal/governance"
)

// Subscriber is notified after every committed mutation.
type Subscriber interface {
	StateChanged(ctx context.Context, keys []governance.Key, state governance.State) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(ctx context.Context, keys []governance.Key, state governance.State) error

// StateChanged calls f.
func (f SubscriberFunc) StateChanged(ctx context.Context, keys []governance.Key, state governance.State) error {
	return f(ctx, keys, state)
}

// Store owns the single application state tree. Mutations are serialized and
// subscribers observe them in commit order.
type Store struct {
	writeMu     sync.Mutex
	mu          sync.RWMutex
	state       governance.State
	subscribers []Subscriber
	logger      *slog.Logger
}

// NewStore constructs a Store holding initial.
func NewStore(initial governance.State, logger *slog.Logger) *Store {
	return &Store{state: initial.Clone(), logger: defaultLogger(logger)}
}

// Subscribe registers sub. Subscribers are called in registration order.
func (s *Store) Subscribe(sub Subscriber) {
	if sub == nil {
		return
	}
	s.writeMu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.writeMu.Unlock()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() governance.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Replace swaps in state without notifying subscribers.
func (s *Store) Replace(state governance.State) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	s.state = state.Clone()
	s.mu.Unlock()
}

// Mutate applies fn to a copy of the state. When fn fails nothing changes.
// Otherwise the copy is committed and every subscriber is told which keys
// changed; their errors are joined and wrapped in ErrPersistence while the
// committed state stays in place.
func (s *Store) Mutate(ctx context.Context, keys []governance.Key, fn func(*governance.State) error) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next := s.state.Clone()
	s.mu.RUnlock()

	if err := fn(&next); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	if len(keys) == 0 || len(s.subscribers) == 0 {
		return nil
	}

	snapshot := next.Clone()
	var errs []error
	for _, sub := range s.subscribers {
		if err := sub.StateChanged(ctx, keys, snapshot); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		err := fmt.Errorf("%w: %w", ErrPersistence, errors.Join(errs...))
		s.logger.ErrorContext(ctx, "state subscriber failed", "keys", keys, "error", err, "error_kind", ErrorKind(err))
		return err
	}
	return nil
}
