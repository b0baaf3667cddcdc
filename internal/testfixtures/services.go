package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/directus-governance/internal/application"
	"github.com/example/directus-governance/internal/governance"
	"github.com/example/directus-governance/internal/logging"
)

// SessionSecret signs the session tokens issued by factory-built services.
const SessionSecret = "fixture-session-secret"

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
	SessionTTL  time.Duration
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Logger:      logging.Discard(),
		SessionTTL:  time.Hour,
	}
	for _, opt := range opts {
		opt(factory)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// NewStore returns a store holding state, or the seed state when none is given.
func (f *ServiceFactory) NewStore(state ...governance.State) *application.Store {
	initial := SeedState()
	if len(state) > 0 {
		initial = state[0]
	}
	return application.NewStore(initial, f.Logger)
}

// NewServices wires every service against a fresh store built by NewStore.
func (f *ServiceFactory) NewServices(state ...governance.State) *application.Services {
	return f.ServicesFor(f.NewStore(state...))
}

// ServicesFor wires every service against store.
func (f *ServiceFactory) ServicesFor(store *application.Store) *application.Services {
	return application.NewServices(store, application.ServicesConfig{
		SessionSecret: SessionSecret,
		SessionTTL:    f.SessionTTL,
		IDGenerator:   f.IDGenerator.NextFunc(),
		Now:           f.Clock.NowFunc(),
		Logger:        f.Logger,
	})
}

// Principal returns the principal for a seeded roster entry.
func Principal(id string) application.Principal {
	return application.PrincipalFor(User(id))
}
