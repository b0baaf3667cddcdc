package application

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/example/directus-governance/internal/governance"
)

const (
	// minAccessKeyLength is the shortest access key the login form accepts.
	minAccessKeyLength = 4
	tokenIssuer        = "directus-governance"
)

var signingKeyInfo = []byte("directus.session.hs256.v1")

// sessionClaims is the payload of a session token.
type sessionClaims struct {
	Role       governance.Role       `json:"role"`
	Department governance.Department `json:"department"`
	jwt.RegisteredClaims
}

// AuthService coordinates login, session validation and logout.
type AuthService struct {
	store       *Store
	signingKey  []byte
	sessionTTL  time.Duration
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAuthService constructs an AuthService that signs sessions with a key derived from secret.
func NewAuthService(store *Store, secret string, sessionTTL time.Duration, idGenerator func() string, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(store, secret, sessionTTL, idGenerator, now, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(store *Store, secret string, sessionTTL time.Duration, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AuthService {
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	return &AuthService{
		store:       store,
		signingKey:  deriveSigningKey(secret),
		sessionTTL:  sessionTTL,
		idGenerator: defaultIDGenerator(idGenerator),
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// deriveSigningKey stretches the configured secret into a 32 byte HMAC key.
func deriveSigningKey(secret string) []byte {
	reader := hkdf.New(sha256.New, []byte(secret), nil, signingKeyInfo)
	key := make([]byte, 32)
	// HKDF-SHA256 only fails past 255*32 bytes of output.
	_, _ = io.ReadFull(reader, key)
	return key
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Login looks the id up in the roster, ignoring case, records the session
// in the audit trail and issues a signed session token.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}

	userID := strings.TrimSpace(params.UserID)
	logger := s.loggerWith(ctx, "Login", "login_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID, "role", result.User.Role).InfoContext(ctx, "authentication succeeded")
	}()

	if userID == "" || utf8.RuneCountInString(params.AccessKey) < minAccessKeyLength {
		err = ErrInvalidCredentials
		return
	}

	var user governance.User
	keys := []governance.Key{governance.KeyCurrentUser, governance.KeyAuditLogs}
	err = s.store.Mutate(ctx, keys, func(st *governance.State) error {
		found := false
		for _, u := range st.Users {
			if strings.EqualFold(u.ID, userID) {
				user, found = u, true
				break
			}
		}
		if !found {
			return ErrInvalidCredentials
		}
		current := user
		st.CurrentUser = &current
		appendAudit(st, s.idGenerator(), s.now(), governance.ActorFor(user), governance.ActionLogin,
			fmt.Sprintf("Authenticated session for %s (%s).", user.Name, user.Role))
		return nil
	})
	if err != nil && !errors.Is(err, ErrPersistence) {
		return
	}

	token, expiresAt, signErr := s.issue(user)
	if signErr != nil {
		err = errors.Join(err, signErr)
		return
	}
	result = LoginResult{User: user, Token: token, ExpiresAt: expiresAt}
	return
}

func (s *AuthService) issue(user governance.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.sessionTTL)
	claims := sessionClaims{
		Role:       user.Role,
		Department: user.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			ID:        s.idGenerator(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, expiresAt, nil
}

// ValidateSession verifies a session token and returns the principal it carries.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil {
		return Principal{}, fmt.Errorf("AuthService is nil")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrUnauthorized
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	claims := &sessionClaims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	}); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrSessionExpired
		}
		return Principal{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return Principal{}, ErrUnauthorized
	}
	return Principal{UserID: claims.Subject, Role: claims.Role, Department: claims.Department}, nil
}

// Logout clears the current user.
func (s *AuthService) Logout(ctx context.Context, principal Principal) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	err := s.store.Mutate(ctx, []governance.Key{governance.KeyCurrentUser}, func(st *governance.State) error {
		st.CurrentUser = nil
		return nil
	})
	logger := s.loggerWith(ctx, "Logout", "user_id", principal.UserID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to clear session", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "session cleared")
	return nil
}
