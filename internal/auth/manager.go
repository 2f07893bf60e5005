// Package auth は認証・認可機能を提供します。
//
// CredentialService が登録とログインを、TokenService がアクセストークンの発行と検証を担い、
// Manager がそれらを gin のハンドラーとミドルウェアとして公開します。
package auth

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/todo-api/internal/store"
)

// ContextUserKey は、ハンドラー間で認証済みユーザーを共有するためのキーです。
const ContextUserKey = "auth.user"

// TokenCookieName はログアウト時に削除するクッキー名です。
const TokenCookieName = "token"

// TodoPurger は削除されたユーザーの To-Do を片付けます。
type TodoPurger interface {
	PurgeTodos(ctx context.Context, userID string) error
}

// Recorder は認証イベントを記録します（メトリクス用）。
type Recorder interface {
	Registration(outcome string)
	Login(outcome string)
	TokenCheck(result string)
}

type nopRecorder struct{}

func (nopRecorder) Registration(string) {}
func (nopRecorder) Login(string)        {}
func (nopRecorder) TokenCheck(string)   {}

// Options は Manager の任意の依存です。
type Options struct {
	Purger   TodoPurger
	Recorder Recorder
	Logger   *logrus.Logger
}

// Manager は認証処理をまとめた構造体です。
type Manager struct {
	credentials *CredentialService
	tokens      *TokenService
	users       store.UserStore
	purger      TodoPurger
	recorder    Recorder
	logger      *logrus.Logger
}

// NewManager は認証マネージャーを作成します。
func NewManager(credentials *CredentialService, tokens *TokenService, users store.UserStore, opts Options) (*Manager, error) {
	if credentials == nil {
		return nil, errors.New("credentials is nil")
	}
	if tokens == nil {
		return nil, errors.New("tokens is nil")
	}
	if users == nil {
		return nil, errors.New("users is nil")
	}
	m := &Manager{
		credentials: credentials,
		tokens:      tokens,
		users:       users,
		purger:      opts.Purger,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
	}
	if m.recorder == nil {
		m.recorder = nopRecorder{}
	}
	if m.logger == nil {
		m.logger = logrus.StandardLogger()
	}
	return m, nil
}
