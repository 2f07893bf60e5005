// Package redisstore は go-redis を使ったストア実装です。
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/todo-api/internal/model"
	"github.com/yourusername/todo-api/internal/store"
)

// ユーザー、メールアドレス索引、To-Do、所有者索引はキー空間を分けます。
const (
	userKeyPrefix       = "user:"
	emailKeyPrefix      = "email:"
	todoKeyPrefix       = "todo:"
	ownerTodosKeyPrefix = "owner-todos:"
	maxTxRetries        = 16
)

// Store はユーザーと To-Do を Redis に JSON で保存します。
type Store struct {
	rdb *redis.Client
}

var _ store.Store = (*Store)(nil)

// New は Store を作成します。
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Open は URL から接続し、疎通確認を行います。
func Open(ctx context.Context, url string) (*Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(rdb), nil
}

// Close は接続を閉じます。
func (s *Store) Close() error {
	return s.rdb.Close()
}

// userRecord は保存用の表現です。model.User は PasswordHash を JSON に出さないため分けています。
type userRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (r userRecord) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		IsAdmin:      r.IsAdmin,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func recordFromUser(u *model.User) userRecord {
	return userRecord{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// CreateUser はメールアドレスのインデックスを SETNX で確保してからユーザーを保存します。
// 同じメールアドレスで同時に登録しても、確保できるのは一件だけです。
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	claimed, err := s.rdb.SetNX(ctx, emailKey(u.Email), u.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("claim email: %w", err)
	}
	if !claimed {
		return store.ErrDuplicateEmail
	}

	payload, err := json.Marshal(recordFromUser(u))
	if err != nil {
		_ = s.rdb.Del(ctx, emailKey(u.Email)).Err()
		return err
	}
	if err := s.rdb.Set(ctx, userKey(u.ID), payload, 0).Err(); err != nil {
		_ = s.rdb.Del(ctx, emailKey(u.Email)).Err()
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// GetUser は ID でユーザーを取得します。
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, store.ErrNotFound
	}
	data, err := s.rdb.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	var record userRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record.toModel(), nil
}

// GetUserByEmail はメールアドレスのインデックス経由でユーザーを取得します。
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	id, err := s.rdb.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// DeleteUser はユーザーとメールアドレスのインデックスを削除します。
// 所有する To-Do は DeleteTodosByOwner で別途削除します。
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, userKey(id))
	pipe.Del(ctx, emailKey(u.Email))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func userKey(id string) string {
	return userKeyPrefix + id
}

func emailKey(email string) string {
	return emailKeyPrefix + email
}

func ownerTodosKey(ownerID string) string {
	return ownerTodosKeyPrefix + ownerID
}

func todoKey(id string) string {
	return todoKeyPrefix + id
}
