package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/todo-api/internal/apperr"
)

const validPassword = "Sup3r$ecret"

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	registered, err := f.credentials.Register(ctx, "Alice", "alice@example.com", validPassword)
	require.NoError(t, err)
	require.NotEmpty(t, registered.Token)
	assert.False(t, registered.User.IsAdmin)

	loggedIn, err := f.credentials.Login(ctx, "alice@example.com", validPassword)
	require.NoError(t, err)

	for _, token := range []string{registered.Token, loggedIn.Token} {
		user, err := f.tokens.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, user.ID)
	}
}

func TestRegisterStoresOnlyHash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	session, err := f.credentials.Register(ctx, "Alice", "alice@example.com", validPassword)
	require.NoError(t, err)

	stored, err := f.store.GetUser(ctx, session.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, validPassword, stored.PasswordHash)
	assert.NotContains(t, stored.PasswordHash, validPassword)
	assert.True(t, f.hasher.Compare(stored.PasswordHash, validPassword))
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name, userName, email, password string
	}{
		{"missing name", "", "a@example.com", validPassword},
		{"blank name", "   ", "a@example.com", validPassword},
		{"missing email", "A", "", validPassword},
		{"missing password", "A", "a@example.com", ""},
		{"email without at", "A", "example.com", validPassword},
		{"email without domain dot", "A", "a@example", validPassword},
		{"email with space", "A", "a b@example.com", validPassword},
		{"too short", "A", "a@example.com", "abc"},
		{"no uppercase", "A", "a@example.com", "alllowercase1!"},
		{"no lowercase", "A", "a@example.com", "ALLUPPER1!"},
		{"no digit", "A", "a@example.com", "NoDigits!"},
		{"no symbol", "A", "a@example.com", "NoSymbol12"},
		{"seven chars", "A", "a@example.com", "shrt1A!"},
		{"longer than bcrypt accepts", "A", "a@example.com", "Aa1!" + strings.Repeat("x", 80)},
	}

	f := newFixture(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.credentials.Register(context.Background(), tc.userName, tc.email, tc.password)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestRegisterAcceptsBoundaryPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.credentials.Register(context.Background(), "A", "a@example.com", "short1A!")
	require.NoError(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.credentials.Register(ctx, "A", "dup@example.com", validPassword)
	require.NoError(t, err)

	_, err = f.credentials.Register(ctx, "B", "dup@example.com", validPassword)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestRegisterConcurrentDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const attempts = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.credentials.Register(ctx, "Racer", "race@example.com", validPassword)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperr.KindOf(err) == apperr.KindConflict:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.credentials.Register(ctx, "A", "known@example.com", validPassword)
	require.NoError(t, err)

	_, wrongPassword := f.credentials.Login(ctx, "known@example.com", "Wrong#Pass1")
	_, unknownEmail := f.credentials.Login(ctx, "unknown@example.com", validPassword)

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)

	var a, b *apperr.Error
	require.True(t, errors.As(wrongPassword, &a))
	require.True(t, errors.As(unknownEmail, &b))
	assert.Equal(t, a.Kind, b.Kind)
	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, a.Message, b.Message)
	assert.Equal(t, apperr.Status(wrongPassword), apperr.Status(unknownEmail))
	assert.Equal(t, "invalid credentials", a.Message)
}

func TestProvisionAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.credentials.Provision(ctx, "Root", "root@example.com", validPassword, true)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	stored, err := f.store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)
}

func TestValidPassword(t *testing.T) {
	assert.True(t, ValidPassword("short1A!"))
	assert.True(t, ValidPassword("Ünïcode1-"))
	assert.False(t, ValidPassword("Spaces 12"), "whitespace is not a symbol")
}
