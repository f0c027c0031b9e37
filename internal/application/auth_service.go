package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/security"
)

// DefaultSessionTTL applies when the configured lifetime is zero or negative.
const DefaultSessionTTL = 7 * 24 * time.Hour

// CredentialStore exposes user credential lookup operations required by the auth service.
type CredentialStore interface {
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// TokenSigner wraps stored session tokens into signed values handed to clients.
type TokenSigner interface {
	Sign(sessionToken, userID string, expiresAt time.Time) (string, error)
	Verify(signed string) (security.Claims, error)
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService issues, validates and revokes login sessions. A client only
// ever sees the signed wrapper; the opaque token behind it lives in the
// session store so revocation takes effect immediately.
type AuthService struct {
	credentials    CredentialStore
	sessions       SessionRepository
	signer         TokenSigner
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, sessions SessionRepository, signer TokenSigner, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(credentials, sessions, signer, verify, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, sessions SessionRepository, signer TokenSigner, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	svc := &AuthService{
		credentials:    credentials,
		sessions:       sessions,
		signer:         signer,
		verifyPassword: verify,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
	if svc.verifyPassword == nil {
		svc.verifyPassword = VerifyPassword
	}
	if svc.tokenGenerator == nil {
		svc.tokenGenerator = func() string { return "" }
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.sessionTTL <= 0 {
		svc.sessionTTL = DefaultSessionTTL
	}
	return svc
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil || s.sessions == nil || s.signer == nil {
		return fmt.Errorf("auth dependencies not configured")
	}
	return nil
}

// SessionTTL reports how long issued sessions stay valid.
func (s *AuthService) SessionTTL() time.Duration {
	if s == nil {
		return 0
	}
	return s.sessionTTL
}

// Authenticate checks an email and password pair and opens a session.
// Unknown emails and wrong passwords fail with the same ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "authentication succeeded",
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		)
	}()

	var user User
	if user, err = s.checkCredentials(ctx, email, params.Password); err != nil {
		return
	}

	var session Session
	var signed string
	if session, signed, err = s.openSession(ctx, user.ID); err != nil {
		return
	}

	result = AuthenticateResult{User: user, Session: session, SignedToken: signed}
	return
}

func (s *AuthService) checkCredentials(ctx context.Context, email, password string) (User, error) {
	if email == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	creds, err := s.credentials.GetUserCredentialsByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}

	if s.verifyPassword(creds.PasswordHash, password) != nil {
		return User{}, ErrInvalidCredentials
	}
	return creds.User, nil
}

// openSession stores a fresh session for userID, pruning expired rows first,
// and returns it together with its signed wrapper.
func (s *AuthService) openSession(ctx context.Context, userID string) (Session, string, error) {
	now := s.now()
	id := s.tokenGenerator()
	token := s.tokenGenerator()
	if token == "" {
		token = id
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return Session{}, "", err
	}

	session, err := s.sessions.CreateSession(ctx, Session{
		ID:        id,
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	})
	if err != nil {
		return Session{}, "", err
	}

	signed, err := s.signer.Sign(session.Token, session.UserID, session.ExpiresAt)
	if err != nil {
		return Session{}, "", err
	}
	return session, signed, nil
}

// claims unwraps a signed token. An expired signature is reported as
// ErrSessionExpired, every other failure as ErrInvalidCredentials.
func (s *AuthService) claims(signed string) (security.Claims, error) {
	if signed == "" {
		return security.Claims{}, ErrInvalidCredentials
	}
	claims, err := s.signer.Verify(signed)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, security.ErrTokenExpired):
		return security.Claims{}, ErrSessionExpired
	default:
		return security.Claims{}, ErrInvalidCredentials
	}
}

// RevokeSession logs out the session behind a signed token. Revoking an
// already revoked session succeeds.
func (s *AuthService) RevokeSession(ctx context.Context, signedToken string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	trimmed := strings.TrimSpace(signedToken)
	logger := s.loggerWith(ctx, "RevokeSession", "token_provided", trimmed != "")

	var revoked Session
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session revoked", "session_id", revoked.ID, "user_id", revoked.UserID)
	}()

	var claims security.Claims
	if claims, err = s.claims(trimmed); err != nil {
		// Logging out with an expired token is still a bad token.
		err = ErrInvalidCredentials
		return
	}

	revoked, err = s.sessions.RevokeSession(ctx, claims.SessionToken, s.now())
	if errors.Is(err, ErrNotFound) {
		err = ErrInvalidCredentials
	}
	return
}

// ValidateSession resolves a signed token to the principal it was issued to.
// The signature, the stored session and the account must all still be valid.
func (s *AuthService) ValidateSession(ctx context.Context, signedToken string) (principal Principal, err error) {
	if err = s.ready(); err != nil {
		return
	}

	trimmed := strings.TrimSpace(signedToken)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "session validated", "principal_id", principal.UserID)
	}()

	var claims security.Claims
	if claims, err = s.claims(trimmed); err != nil {
		return
	}

	var session Session
	if session, err = s.activeSession(ctx, claims); err != nil {
		return
	}

	var user User
	user, err = s.credentials.GetUser(ctx, session.UserID)
	if errors.Is(err, ErrNotFound) {
		err = ErrInvalidCredentials
	}
	if err != nil {
		return
	}

	principal = Principal{UserID: user.ID, Role: user.Role}
	return
}

// activeSession loads the stored session named by claims and rejects it when
// it belongs to someone else, was revoked or has passed its expiry.
func (s *AuthService) activeSession(ctx context.Context, claims security.Claims) (Session, error) {
	session, err := s.sessions.GetSession(ctx, claims.SessionToken)
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	switch {
	case session.UserID != claims.UserID:
		return Session{}, ErrInvalidCredentials
	case session.RevokedAt != nil && !session.RevokedAt.IsZero():
		return Session{}, ErrSessionRevoked
	case !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(s.now()):
		return Session{}, ErrSessionExpired
	}
	return session, nil
}
