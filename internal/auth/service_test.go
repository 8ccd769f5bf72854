package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/collabspace-server/internal/store/sqlite"
)

func newTestAuthService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return NewService(st, jwtConfig)
}

func TestRegister_RejectsInvalidInput(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ab", "ab@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	// Validated after trimming whitespace.
	_, err = svc.Register(ctx, " ab ", "ab@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	_, err = svc.Register(ctx, "abc", "not-an-email", "password123")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Register(ctx, "abc", "abc@example.com", "12345")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestRegister_TrimsUsernameAndRejectsDuplicates(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, " alice ", "alice@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Positive(t, claims.UserID)

	_, err = svc.Register(ctx, "ALICE", "other@example.com", "password123")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register(ctx, "alice2", "alice@example.com", "password123")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob", "bob@example.com", "password123")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "bob", "password123")
	require.NoError(t, err)
	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Identity().Username)

	_, err = svc.Login(ctx, "bob", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_RejectsForeignTokens(t *testing.T) {
	cfg := &JWTConfig{Secret: []byte("a"), Issuer: "test", Audience: "test", TTL: time.Minute}
	token, err := GenerateToken(cfg, Identity{UserID: 1, Username: "u"})
	require.NoError(t, err)

	_, err = ValidateToken(&JWTConfig{Secret: []byte("b"), Issuer: "test", Audience: "test"}, token)
	assert.Error(t, err)

	_, err = ValidateToken(&JWTConfig{Secret: []byte("a"), Issuer: "other", Audience: "test"}, token)
	assert.Error(t, err)

	_, err = ValidateToken(&JWTConfig{Secret: []byte("a"), Issuer: "test", Audience: "other"}, token)
	assert.Error(t, err)

	expired, err := GenerateToken(&JWTConfig{Secret: []byte("a"), TTL: -time.Minute}, Identity{UserID: 1})
	require.NoError(t, err)
	_, err = ValidateToken(&JWTConfig{Secret: []byte("a")}, expired)
	assert.Error(t, err)
}
