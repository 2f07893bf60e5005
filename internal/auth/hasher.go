package auth

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Hasher はパスワードの一方向ハッシュ化と照合を行います。
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// BcryptHasher は bcrypt による Hasher 実装です。
type BcryptHasher struct {
	Cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewBcryptHasher は指定コストの BcryptHasher を作成します。0 以下なら bcrypt.DefaultCost を使います。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

// ErrPasswordTooLong は bcrypt が扱えない長さ（72バイト超）のパスワードです。
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// Hash はパスワードを bcrypt でハッシュ化します。
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare はハッシュとパスワードが一致するかを返します。
func (h *BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CompareDummy は存在しないユーザーのログインでも同じだけ時間をかけるための照合です。
func (h *BcryptHasher) CompareDummy(password string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), h.Cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}

func isTooLong(err error) bool {
	return errors.Is(err, bcrypt.ErrPasswordTooLong)
}
