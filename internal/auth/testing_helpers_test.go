package auth

import (
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/todo-api/internal/store/sqlite"
)

var testKey = []byte("test-signing-key")

type fixture struct {
	store       *sqlite.Store
	hasher      *BcryptHasher
	tokens      *TokenService
	credentials *CredentialService
}

func newFixture(t *testing.T, opts ...TokenOption) *fixture {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	tokens, err := NewTokenService(testKey, time.Hour, s, opts...)
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}
	hasher := NewBcryptHasher(bcrypt.MinCost)
	return &fixture{
		store:       s,
		hasher:      hasher,
		tokens:      tokens,
		credentials: NewCredentialService(s, hasher, tokens),
	}
}
