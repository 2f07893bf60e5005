// Package store はユーザーと To-Do の永続化インターフェースを定義します。
package store

import (
	"context"
	"errors"

	"github.com/yourusername/todo-api/internal/model"
)

var (
	// ErrNotFound は対象レコードが存在しないことを表します。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail はメールアドレスの一意制約違反を表します。
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserStore はユーザーの永続化を担います。
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// TodoStore は To-Do の永続化を担います。所有者は作成後に変更しません。
type TodoStore interface {
	// CreateTodo は所有者が存在しない場合 ErrNotFound を返します。
	CreateTodo(ctx context.Context, t *model.Todo) error
	GetTodo(ctx context.Context, id string) (*model.Todo, error)
	ListTodos(ctx context.Context, ownerID string) ([]model.Todo, error)
	UpdateTodo(ctx context.Context, t *model.Todo) error
	DeleteTodo(ctx context.Context, id string) error
	DeleteTodosByOwner(ctx context.Context, ownerID string) (int, error)
}

// Store は両方のレコード種別を扱うバックエンドです。
type Store interface {
	UserStore
	TodoStore
	Close() error
}
