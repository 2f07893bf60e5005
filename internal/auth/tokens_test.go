package auth

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/todo-api/internal/apperr"
	"github.com/yourusername/todo-api/internal/model"
)

func TestNewTokenServiceRequiresKey(t *testing.T) {
	f := newFixture(t)
	_, err := NewTokenService(nil, time.Hour, f.store)
	assert.ErrorIs(t, err, ErrEmptySigningKey)
}

func TestTokenKeyIsCopied(t *testing.T) {
	f := newFixture(t)
	key := []byte("mutable-key")
	tokens, err := NewTokenService(key, time.Hour, f.store)
	require.NoError(t, err)

	token, err := tokens.Issue("user-1")
	require.NoError(t, err)
	key[0] = 'X'

	id, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestParseRejectsTamperedSignature(t *testing.T) {
	f := newFixture(t)
	token, err := f.tokens.Issue("user-1")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'a' {
		sig[0] = 'b'
	} else {
		sig[0] = 'a'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = f.tokens.Parse(tampered)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidToken, apperr.CodeOf(err))
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(err))
}

func TestParseRejectsOtherKey(t *testing.T) {
	f := newFixture(t)
	other, err := NewTokenService([]byte("another-key"), time.Hour, f.store)
	require.NoError(t, err)
	token, err := other.Issue("user-1")
	require.NoError(t, err)

	_, err = f.tokens.Parse(token)
	assert.Equal(t, apperr.CodeInvalidToken, apperr.CodeOf(err))
}

func TestParseRejectsExpiredToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, WithClock(func() time.Time { return now }))

	token, err := f.tokens.Issue("user-1")
	require.NoError(t, err)

	_, err = f.tokens.Parse(token)
	require.NoError(t, err)

	now = now.Add(time.Hour + time.Second)
	_, err = f.tokens.Parse(token)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidToken, apperr.CodeOf(err))
}

func TestParseRejectsUnsignedToken(t *testing.T) {
	f := newFixture(t)
	claims := tokenClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = f.tokens.Parse(token)
	assert.Equal(t, apperr.CodeInvalidToken, apperr.CodeOf(err))
}

func TestParseRejectsMissingClaims(t *testing.T) {
	f := newFixture(t)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{UserID: "user-1"}).SignedString(testKey)
	require.NoError(t, err)
	_, err = f.tokens.Parse(noExpiry)
	assert.Equal(t, apperr.CodeInvalidToken, apperr.CodeOf(err))

	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(testKey)
	require.NoError(t, err)
	_, err = f.tokens.Parse(noID)
	assert.Equal(t, apperr.CodeInvalidToken, apperr.CodeOf(err))

	_, err = f.tokens.Parse("not-a-jwt")
	assert.Equal(t, apperr.CodeInvalidToken, apperr.CodeOf(err))
}

func TestParseMissingToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.tokens.Parse("  ")
	assert.Equal(t, apperr.CodeMissingToken, apperr.CodeOf(err))
}

func TestVerifyDeletedIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	session, err := f.credentials.Register(ctx, "Gone", "gone@example.com", validPassword)
	require.NoError(t, err)
	require.NoError(t, f.store.DeleteUser(ctx, session.User.ID))

	_, err = f.tokens.Verify(ctx, session.Token)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUserNotFound, apperr.CodeOf(err))
}

func TestAuthorizeOwnerOrAdmin(t *testing.T) {
	owner := &model.User{ID: "owner"}
	stranger := &model.User{ID: "stranger"}
	admin := &model.User{ID: "admin", IsAdmin: true}

	assert.True(t, AuthorizeOwnerOrAdmin(owner, "owner"))
	assert.True(t, AuthorizeOwnerOrAdmin(admin, "owner"))
	assert.True(t, AuthorizeOwnerOrAdmin(admin, "admin"))
	assert.False(t, AuthorizeOwnerOrAdmin(stranger, "owner"))
	assert.False(t, AuthorizeOwnerOrAdmin(nil, "owner"))
}
