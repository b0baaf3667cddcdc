package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/directus-governance/internal/application"
	"github.com/example/directus-governance/internal/governance"
	"github.com/example/directus-governance/internal/testfixtures"
)

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	cases := []struct {
		name   string
		params application.LoginParams
	}{
		{"blank id", application.LoginParams{UserID: " ", AccessKey: "secret"}},
		{"short key", application.LoginParams{UserID: testfixtures.CEOID, AccessKey: "abc"}},
		{"unknown id", application.LoginParams{UserID: "ghost", AccessKey: "secret"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			services := testfixtures.NewServiceFactory().NewServices()

			_, err := services.Auth.Login(ctx, tc.params)
			if !errors.Is(err, application.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			state := services.Store.Snapshot()
			if state.CurrentUser != nil || len(state.AuditLogs) != 0 {
				t.Fatalf("failed login changed state: %+v", state.AuditLogs)
			}
		})
	}

	t.Run("matches ids ignoring case", func(t *testing.T) {
		t.Parallel()
		services := testfixtures.NewServiceFactory().NewServices()

		result, err := services.Auth.Login(ctx, application.LoginParams{UserID: " U1 ", AccessKey: "ключ"})
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if result.User.ID != testfixtures.CEOID || result.Token == "" {
			t.Fatalf("unexpected login result %+v", result)
		}
		if want := testfixtures.ReferenceTime().Add(time.Hour); !result.ExpiresAt.Equal(want) {
			t.Fatalf("expected expiry %v, got %v", want, result.ExpiresAt)
		}

		state := services.Store.Snapshot()
		if state.CurrentUser == nil || state.CurrentUser.ID != testfixtures.CEOID {
			t.Fatalf("current user not recorded: %+v", state.CurrentUser)
		}
		entry := state.AuditLogs[0]
		if entry.Action != governance.ActionLogin || entry.Details != "Authenticated session for Julian Thorne (CEO)." {
			t.Fatalf("unexpected audit entry %+v", entry)
		}
	})
}

func TestAuthService_Sessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := testfixtures.NewClock(time.Time{})
	factory := testfixtures.NewServiceFactory(testfixtures.WithClock(clock))
	services := factory.NewServices()

	result, err := services.Auth.Login(ctx, application.LoginParams{UserID: testfixtures.FinanceHOD, AccessKey: "1234"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	principal, err := services.Auth.ValidateSession(ctx, result.Token)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	want := application.Principal{UserID: testfixtures.FinanceHOD, Role: governance.RoleHOD, Department: governance.DepartmentFinance}
	if principal != want {
		t.Fatalf("expected %+v, got %+v", want, principal)
	}

	if _, err := services.Auth.ValidateSession(ctx, ""); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for a blank token, got %v", err)
	}
	if _, err := services.Auth.ValidateSession(ctx, result.Token+"x"); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for a tampered token, got %v", err)
	}

	foreign := application.NewAuthService(services.Store, "another-secret", time.Hour, nil, clock.NowFunc())
	other, err := foreign.Login(ctx, application.LoginParams{UserID: testfixtures.FinanceHOD, AccessKey: "1234"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := services.Auth.ValidateSession(ctx, other.Token); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected tokens signed with another secret to be refused, got %v", err)
	}

	clock.Advance(2 * time.Hour)
	if _, err := services.Auth.ValidateSession(ctx, result.Token); !errors.Is(err, application.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	if err := services.Auth.Logout(ctx, principal); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if services.Store.Snapshot().CurrentUser != nil {
		t.Fatalf("expected current user to be cleared")
	}
}
