package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/dutyflow/internal/access"
	"github.com/kingrea/dutyflow/internal/failure"
	"github.com/kingrea/dutyflow/internal/storage"
)

const testSecret = "household-secret"

var now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, email, role string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"email": email, "role": role}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func fixedClock(at *time.Time) func() time.Time {
	return func() time.Time { return *at }
}

func TestUnauthenticatedStoreDeniesEverything(t *testing.T) {
	t.Parallel()

	s := NewStore(storage.NewMemory())
	require.False(t, s.IsAuthenticated())
	require.False(t, s.IsLoading())
	require.False(t, s.HasRole(access.RoleSuperuser, access.RoleEditor, access.RoleViewer))
	require.False(t, s.HasRole())
	require.Equal(t, access.RoleNone, s.Role())
	require.Empty(t, s.Token())
	require.False(t, s.Can(access.ActionRefresh))
}

func TestLoginWithVerifiedToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := now
	mem := storage.NewMemory()

	s := NewStore(mem, WithSigningSecret(testSecret), WithClock(fixedClock(&clock)))
	token := signToken(t, "sam@example.com", "editor", now.Add(time.Hour))
	sess, err := s.Login(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "sam@example.com", sess.Email)
	require.Equal(t, access.RoleEditor, sess.Role)

	require.True(t, s.IsAuthenticated())
	require.True(t, s.HasRole(access.RoleSuperuser, access.RoleEditor))
	require.False(t, s.HasRole(access.RoleSuperuser))
	require.Equal(t, token, s.Token())

	data, err := mem.Read(ctx, StorageKey)
	require.NoError(t, err)
	var persisted Session
	require.NoError(t, json.Unmarshal(data, &persisted))
	require.Equal(t, access.RoleEditor, persisted.Role)
}

func TestLoginRejectsBadTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := now

	cases := map[string]string{
		"empty":         "",
		"garbage":       "not-a-jwt",
		"unknown role":  signToken(t, "sam@example.com", "owner", now.Add(time.Hour)),
		"missing email": signToken(t, "", "viewer", now.Add(time.Hour)),
		"expired":       signToken(t, "sam@example.com", "viewer", now.Add(-time.Minute)),
	}
	for name, token := range cases {
		s := NewStore(storage.NewMemory(), WithSigningSecret(testSecret), WithClock(fixedClock(&clock)))
		_, err := s.Login(ctx, token)
		require.ErrorIs(t, err, failure.ErrValidation, name)
		require.False(t, s.IsAuthenticated(), name)
		require.Equal(t, access.RoleNone, s.Role(), name)
	}
}

func TestLoginRejectsWrongSignature(t *testing.T) {
	t.Parallel()
	clock := now

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "mallory@example.com",
		"role":  "superuser",
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	s := NewStore(nil, WithSigningSecret(testSecret), WithClock(fixedClock(&clock)))
	_, err = s.Login(context.Background(), forged)
	require.ErrorIs(t, err, failure.ErrValidation)
	require.False(t, s.IsAuthenticated())

	unverified := NewStore(nil, WithClock(fixedClock(&clock)))
	sess, err := unverified.Login(context.Background(), forged)
	require.NoError(t, err, "without a secret the claims are read unverified")
	require.Equal(t, access.RoleSuperuser, sess.Role)
}

func TestSessionExpiresWhileRunning(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := now
	mem := storage.NewMemory()

	s := NewStore(mem, WithSigningSecret(testSecret), WithClock(fixedClock(&clock)))
	_, err := s.Login(ctx, signToken(t, "sam@example.com", "superuser", now.Add(10*time.Minute)))
	require.NoError(t, err)
	require.True(t, s.HasRole(access.RoleSuperuser))

	clock = now.Add(11 * time.Minute)
	require.False(t, s.HasRole(access.RoleSuperuser))
	require.False(t, s.IsAuthenticated())
	_, err = mem.Read(ctx, StorageKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRestoreAndLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := now
	mem := storage.NewMemory()

	first := NewStore(mem, WithSigningSecret(testSecret), WithClock(fixedClock(&clock)))
	_, err := first.Login(ctx, signToken(t, "sam@example.com", "viewer", now.Add(time.Hour)))
	require.NoError(t, err)

	second := NewStore(mem, WithClock(fixedClock(&clock)))
	require.False(t, second.IsAuthenticated())
	require.NoError(t, second.Restore(ctx))
	require.False(t, second.IsLoading())
	require.True(t, second.HasRole(access.RoleViewer))

	second.Logout(ctx)
	require.False(t, second.IsAuthenticated())

	third := NewStore(mem, WithClock(fixedClock(&clock)))
	require.NoError(t, third.Restore(ctx))
	require.False(t, third.IsAuthenticated())
}

func TestRestoreDiscardsMalformedAndExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := now

	mem := storage.NewMemory()
	require.NoError(t, mem.Write(ctx, StorageKey, []byte(`{"email":"sam@example.com","role":"janitor"}`)))
	s := NewStore(mem, WithClock(fixedClock(&clock)))
	require.NoError(t, s.Restore(ctx))
	require.False(t, s.IsAuthenticated())
	_, err := mem.Read(ctx, StorageKey)
	require.ErrorIs(t, err, storage.ErrNotFound)

	expired, err := json.Marshal(Session{Email: "sam@example.com", Role: access.RoleEditor, Token: "t", ExpiresAt: now.Add(-time.Second)})
	require.NoError(t, err)
	require.NoError(t, mem.Write(ctx, StorageKey, expired))
	require.NoError(t, s.Restore(ctx))
	require.False(t, s.IsAuthenticated())
}

func TestRestoreSurfacesStorageFailure(t *testing.T) {
	t.Parallel()

	mem := storage.NewMemory()
	mem.ReadErr = context.DeadlineExceeded
	s := NewStore(mem)
	err := s.Restore(context.Background())
	require.ErrorIs(t, err, failure.ErrPersistence)
	require.False(t, s.IsAuthenticated())
	require.False(t, s.IsLoading())
}
