package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/directus-governance/internal/application"
	"github.com/example/directus-governance/internal/governance"
	"github.com/example/directus-governance/internal/logging"
)

type fakeSessionValidator struct {
	principals map[string]application.Principal
	err        error
}

func (f fakeSessionValidator) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	if f.err != nil {
		return application.Principal{}, f.err
	}
	principal, ok := f.principals[token]
	if !ok {
		return application.Principal{}, application.ErrUnauthorized
	}
	return principal, nil
}

func TestSessionMiddleware(t *testing.T) {
	t.Parallel()

	chairman := application.Principal{UserID: "u100", Role: governance.RoleChairman, Department: governance.DepartmentExecutive}
	validator := fakeSessionValidator{principals: map[string]application.Principal{"good-token": chairman}}

	t.Run("rejects requests without valid session tokens", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name         string
			cookie       *http.Cookie
			header       string
			validator    SessionValidator
			expectedCode string
			expectedHTTP int
		}{
			{
				name:         "missing credentials",
				validator:    validator,
				expectedCode: "AUTH_REQUIRED",
				expectedHTTP: http.StatusUnauthorized,
			},
			{
				name:         "unknown bearer token",
				header:       "Bearer malformed",
				validator:    validator,
				expectedCode: "AUTH_INVALID_SESSION",
				expectedHTTP: http.StatusUnauthorized,
			},
			{
				name:         "expired cookie session",
				cookie:       &http.Cookie{Name: sessionCookieName, Value: "old-token"},
				validator:    fakeSessionValidator{err: application.ErrSessionExpired},
				expectedCode: "AUTH_SESSION_EXPIRED",
				expectedHTTP: http.StatusUnauthorized,
			},
			{
				name:         "validator failure",
				header:       "Bearer good-token",
				validator:    fakeSessionValidator{err: errors.New("boom")},
				expectedHTTP: http.StatusInternalServerError,
			},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				if tc.cookie != nil {
					req.AddCookie(tc.cookie)
				}
				if tc.header != "" {
					req.Header.Set("Authorization", tc.header)
				}
				recorder := httptest.NewRecorder()

				handler := RequireSession(tc.validator, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Fatal("next handler should not be called when authentication fails")
				}))
				handler.ServeHTTP(recorder, req)

				if recorder.Code != tc.expectedHTTP {
					t.Fatalf("expected status %d, got %d", tc.expectedHTTP, recorder.Code)
				}
				var body errorResponse
				if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode error body: %v", err)
				}
				if body.ErrorCode != tc.expectedCode {
					t.Fatalf("expected error code %q, got %q", tc.expectedCode, body.ErrorCode)
				}
			})
		}
	})

	t.Run("attaches authenticated principal to request context", func(t *testing.T) {
		t.Parallel()

		for name, attach := range map[string]func(*http.Request){
			"bearer header": func(r *http.Request) { r.Header.Set("Authorization", "Bearer good-token") },
			"cookie":        func(r *http.Request) { r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "good-token"}) },
		} {
			attach := attach
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				attach(req)
				recorder := httptest.NewRecorder()

				var got application.Principal
				handler := RequireSession(validator, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					got, _ = PrincipalFromContext(r.Context())
					w.WriteHeader(http.StatusNoContent)
				}))
				handler.ServeHTTP(recorder, req)

				if recorder.Code != http.StatusNoContent {
					t.Fatalf("expected downstream handler to run, got %d", recorder.Code)
				}
				if got != chairman {
					t.Fatalf("expected principal %+v, got %+v", chairman, got)
				}
			})
		}
	})
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	recorder := httptest.NewRecorder()

	handler := RequestLogger(logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if LoggerFromContext(r.Context()) == nil {
			t.Fatal("expected request logger in context")
		}
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	t.Run("throttles a client once its burst is spent", func(t *testing.T) {
		t.Parallel()

		handler := RateLimit(RateLimitConfig{Rate: 0.001, Burst: 2}, logging.Discard())(next)
		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
			req.RemoteAddr = "203.0.113.7:5000"
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)
			codes = append(codes, recorder.Code)
			if i == 2 && recorder.Header().Get("Retry-After") == "" {
				t.Fatal("expected Retry-After on throttled response")
			}
		}
		if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
			t.Fatalf("unexpected status sequence %v", codes)
		}

		// Another address has its own bucket.
		req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
		req.RemoteAddr = "198.51.100.1:5000"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected separate client to pass, got %d", recorder.Code)
		}
	})

	t.Run("non-positive rate disables limiting", func(t *testing.T) {
		t.Parallel()

		handler := RateLimit(RateLimitConfig{}, logging.Discard())(next)
		for i := 0; i < 20; i++ {
			req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)
			if recorder.Code != http.StatusCreated {
				t.Fatalf("request %d throttled with status %d", i, recorder.Code)
			}
		}
	})
}
