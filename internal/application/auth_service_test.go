package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authHarness struct {
	svc      *AuthService
	sessions *memorySessions
	clock    *time.Time
}

func newAuthHarness(t *testing.T) authHarness {
	t.Helper()

	hash, err := CreatePasswordHash("s3cretpass", fastArgon2idParams)
	require.NoError(t, err)

	users := newMemoryUsers(
		UserCredentials{User: User{ID: "7", Email: "ana@example.com", Role: RoleUser}, PasswordHash: hash},
		UserCredentials{User: User{ID: "admin-1", Email: "admin@example.com", Role: RoleAdmin}, PasswordHash: hash},
	)
	current := testNow
	now := func() time.Time { return current }
	sessions := newMemorySessions()
	svc := NewAuthService(users, sessions, newTestTokenManager(now), nil,
		sequenceIDs("s-1", "tok-1", "s-2", "tok-2"), now, time.Hour)
	return authHarness{svc: svc, sessions: sessions, clock: &current}
}

func (h authHarness) login(t *testing.T, email string) AuthenticateResult {
	t.Helper()
	result, err := h.svc.Authenticate(context.Background(), AuthenticateParams{Email: email, Password: "s3cretpass"})
	require.NoError(t, err)
	return result
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("issues a signed session for valid credentials", func(t *testing.T) {
		t.Parallel()
		h := newAuthHarness(t)

		result := h.login(t, " Ana@Example.com ")
		assert.Equal(t, "7", result.User.ID)
		assert.Equal(t, "s-1", result.Session.ID)
		assert.Equal(t, "tok-1", result.Session.Token)
		assert.Equal(t, testNow.Add(time.Hour), result.Session.ExpiresAt)
		assert.NotEmpty(t, result.SignedToken)
		assert.NotEqual(t, result.Session.Token, result.SignedToken)
		assert.Equal(t, []time.Time{testNow}, h.sessions.deleteCalls)
	})

	t.Run("rejects bad credentials with one sentinel", func(t *testing.T) {
		t.Parallel()
		h := newAuthHarness(t)

		cases := []AuthenticateParams{
			{Email: "ana@example.com", Password: "wrong-pass"},
			{Email: "nobody@example.com", Password: "s3cretpass"},
			{Email: "", Password: "s3cretpass"},
			{Email: "ana@example.com", Password: ""},
		}
		for _, params := range cases {
			_, err := h.svc.Authenticate(context.Background(), params)
			assert.ErrorIs(t, err, ErrInvalidCredentials, params.Email)
		}
		assert.Empty(t, h.sessions.sessions)
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	t.Run("returns the principal with role", func(t *testing.T) {
		t.Parallel()
		h := newAuthHarness(t)
		result := h.login(t, "admin@example.com")

		principal, err := h.svc.ValidateSession(context.Background(), result.SignedToken)
		require.NoError(t, err)
		assert.Equal(t, Principal{UserID: "admin-1", Role: RoleAdmin}, principal)
	})

	t.Run("rejects raw session tokens and garbage", func(t *testing.T) {
		t.Parallel()
		h := newAuthHarness(t)
		result := h.login(t, "ana@example.com")

		for _, token := range []string{"", "   ", result.Session.Token, "a.b.c"} {
			_, err := h.svc.ValidateSession(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidCredentials, token)
		}
	})

	t.Run("expired sessions", func(t *testing.T) {
		t.Parallel()
		h := newAuthHarness(t)
		result := h.login(t, "ana@example.com")

		*h.clock = testNow.Add(2 * time.Hour)
		_, err := h.svc.ValidateSession(context.Background(), result.SignedToken)
		assert.ErrorIs(t, err, ErrSessionExpired)
	})

	t.Run("revoked sessions", func(t *testing.T) {
		t.Parallel()
		h := newAuthHarness(t)
		result := h.login(t, "ana@example.com")

		require.NoError(t, h.svc.RevokeSession(context.Background(), result.SignedToken))
		_, err := h.svc.ValidateSession(context.Background(), result.SignedToken)
		assert.ErrorIs(t, err, ErrSessionRevoked)

		require.NoError(t, h.svc.RevokeSession(context.Background(), result.SignedToken))
	})

	t.Run("session removed from the store", func(t *testing.T) {
		t.Parallel()
		h := newAuthHarness(t)
		result := h.login(t, "ana@example.com")
		delete(h.sessions.sessions, result.Session.Token)

		_, err := h.svc.ValidateSession(context.Background(), result.SignedToken)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.ErrorIs(t, h.svc.RevokeSession(context.Background(), result.SignedToken), ErrInvalidCredentials)
	})
}

func TestAuthService_RevokeSessionRejectsUnsignedTokens(t *testing.T) {
	t.Parallel()
	h := newAuthHarness(t)

	assert.ErrorIs(t, h.svc.RevokeSession(context.Background(), ""), ErrInvalidCredentials)
	assert.ErrorIs(t, h.svc.RevokeSession(context.Background(), "tok-1"), ErrInvalidCredentials)
}

func TestAuthService_DefaultTTL(t *testing.T) {
	t.Parallel()

	svc := NewAuthService(nil, nil, nil, nil, nil, nil, 0)
	assert.Equal(t, 7*24*time.Hour, svc.SessionTTL())

	_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "a@b.c", Password: "x"})
	assert.Error(t, err)
}
