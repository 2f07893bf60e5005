package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/todo-api/internal/apperr"
	"github.com/yourusername/todo-api/internal/model"
	"github.com/yourusername/todo-api/internal/store"
)

// Session は登録・ログイン成功時の結果です。
type Session struct {
	User  *model.User
	Token string
}

// CredentialService は登録入力の検証、パスワードのハッシュ化と照合を担います。
type CredentialService struct {
	users  store.UserStore
	hasher Hasher
	tokens *TokenService
	now    func() time.Time
}

// NewCredentialService は CredentialService を作成します。
func NewCredentialService(users store.UserStore, hasher Hasher, tokens *TokenService) *CredentialService {
	return &CredentialService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

// Register は一般ユーザーを登録し、トークンを発行します。
func (s *CredentialService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	user, err := s.Provision(ctx, name, email, password, false)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.New(apperr.KindPersistence, apperr.CodeInternal, "issue token", err)
	}
	return &Session{User: user, Token: token}, nil
}

// Provision は検証済みのユーザーを作成します。管理者の作成は運用CLIからのみ行います。
func (s *CredentialService) Provision(ctx context.Context, name, email, password string, admin bool) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if err := validateRegistration(name, email, password); err != nil {
		return nil, err
	}

	// 先に存在確認しておくとハッシュ計算を省ける。最終判断はストアの一意制約に任せる。
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Persistence("lookup user", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if isTooLong(err) {
			return nil, apperr.Validation(msgWeakPassword)
		}
		return nil, apperr.New(apperr.KindPersistence, apperr.CodeInternal, "hash password", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      admin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, apperr.Conflict("User already exists")
		}
		return nil, apperr.Persistence("create user", err)
	}
	return user, nil
}

// Login は資格情報を照合し、トークンを発行します。
// 未登録のメールアドレスとパスワード不一致は同じエラーになります。
func (s *CredentialService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Auth(apperr.CodeInvalidCredentials, msgBadCredential)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Persistence("lookup user", err)
		}
		if d, ok := s.hasher.(interface{ CompareDummy(string) }); ok {
			d.CompareDummy(password)
		}
		return nil, apperr.Auth(apperr.CodeInvalidCredentials, msgBadCredential)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, apperr.Auth(apperr.CodeInvalidCredentials, msgBadCredential)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.New(apperr.KindPersistence, apperr.CodeInternal, "issue token", err)
	}
	return &Session{User: user, Token: token}, nil
}
