package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yourusername/todo-api/internal/apperr"
	"github.com/yourusername/todo-api/internal/model"
	"github.com/yourusername/todo-api/internal/store"
)

const (
	// DefaultTokenTTL はアクセストークンの既定の有効期間です。
	DefaultTokenTTL = 30 * 24 * time.Hour

	signingMethod = "HS256"
)

const (
	msgMissingToken  = "missing token"
	msgInvalidToken  = "invalid or expired token"
	msgUserNotFound  = "user not found"
	msgBadCredential = "invalid credentials"
)

// ErrEmptySigningKey は署名鍵が設定されていない場合のエラーです。
var ErrEmptySigningKey = errors.New("token signing key is empty")

// tokenClaims はトークンに埋め込むクレームです。
type tokenClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenService はアクセストークンの発行と検証を担います。
// 署名鍵は生成時にコピーし、以後変更しません。
type TokenService struct {
	key   []byte
	ttl   time.Duration
	users store.UserStore
	now   func() time.Time
}

// TokenOption は TokenService の任意設定です。
type TokenOption func(*TokenService)

// WithClock は現在時刻の取得関数を差し替えます。
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService は TokenService を作成します。鍵が空の場合はエラーです。
func NewTokenService(key []byte, ttl time.Duration, users store.UserStore, opts ...TokenOption) (*TokenService, error) {
	if len(key) == 0 {
		return nil, ErrEmptySigningKey
	}
	if users == nil {
		return nil, errors.New("user store is nil")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	s := &TokenService{
		key:   append([]byte(nil), key...),
		ttl:   ttl,
		users: users,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL はトークンの有効期間を返します。
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue はユーザーIDを束縛した署名付きトークンを発行します。
func (s *TokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := s.now()
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Parse は署名と有効期限を検証し、埋め込まれたユーザーIDを返します。
func (s *TokenService) Parse(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperr.Auth(apperr.CodeMissingToken, msgMissingToken)
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{signingMethod}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", apperr.New(apperr.KindAuth, apperr.CodeInvalidToken, msgInvalidToken, err)
	}
	if claims.UserID == "" {
		return "", apperr.Auth(apperr.CodeInvalidToken, msgInvalidToken)
	}
	return claims.UserID, nil
}

// Verify はトークンを検証し、ストアから現存するユーザーを解決します。
// トークン発行後に削除されたユーザーは "user not found" になります。
func (s *TokenService) Verify(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Auth(apperr.CodeUserNotFound, msgUserNotFound)
		}
		return nil, apperr.Persistence("resolve user", err)
	}
	return user, nil
}

// AuthorizeOwnerOrAdmin は本人または管理者であれば true を返します。
func AuthorizeOwnerOrAdmin(user *model.User, ownerID string) bool {
	if user == nil {
		return false
	}
	return user.ID == ownerID || user.IsAdmin
}
