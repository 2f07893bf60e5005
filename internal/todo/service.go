// Package todo は所有者単位の To-Do 操作を提供します。
package todo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/todo-api/internal/apperr"
	"github.com/yourusername/todo-api/internal/auth"
	"github.com/yourusername/todo-api/internal/model"
	"github.com/yourusername/todo-api/internal/store"
)

const maxTitleLength = 500

// Options は Service の設定です。
type Options struct {
	// AdminOverride が true の場合、管理者は他ユーザーの To-Do も更新・削除できます。
	AdminOverride bool
}

// Service は To-Do の作成・更新・削除を所有者に限定して行います。
type Service struct {
	todos         store.TodoStore
	adminOverride bool
	now           func() time.Time
}

// NewService は Service を作成します。
func NewService(todos store.TodoStore, opts Options) *Service {
	return &Service{
		todos:         todos,
		adminOverride: opts.AdminOverride,
		now:           time.Now,
	}
}

// List は呼び出し元が所有する To-Do を返します。
func (s *Service) List(ctx context.Context, user *model.User) ([]model.Todo, error) {
	todos, err := s.todos.ListTodos(ctx, user.ID)
	if err != nil {
		return nil, apperr.Persistence("list todos", err)
	}
	return todos, nil
}

// Create は呼び出し元を所有者とする To-Do を作成します。
func (s *Service) Create(ctx context.Context, user *model.User, title string) (*model.Todo, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	todo := &model.Todo{
		ID:        uuid.NewString(),
		Title:     title,
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.todos.CreateTodo(ctx, todo); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// 認証後に所有者が削除された
			return nil, apperr.Auth(apperr.CodeUserNotFound, "user not found")
		}
		return nil, apperr.Persistence("create todo", err)
	}
	return todo, nil
}

// Update はタイトルを書き換えます。
func (s *Service) Update(ctx context.Context, user *model.User, id, title string) (*model.Todo, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, user, id, func(t *model.Todo) {
		t.Title = title
	})
}

// Toggle は完了状態を反転します。title が空でなければタイトルも更新します。
func (s *Service) Toggle(ctx context.Context, user *model.User, id, title string) (*model.Todo, error) {
	var newTitle string
	if strings.TrimSpace(title) != "" {
		normalized, err := normalizeTitle(title)
		if err != nil {
			return nil, err
		}
		newTitle = normalized
	}
	return s.mutate(ctx, user, id, func(t *model.Todo) {
		t.Completed = !t.Completed
		if newTitle != "" {
			t.Title = newTitle
		}
	})
}

// Delete は To-Do を削除し、削除したレコードを返します。
func (s *Service) Delete(ctx context.Context, user *model.User, id string) (*model.Todo, error) {
	todo, err := s.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err := s.todos.DeleteTodo(ctx, todo.ID); err != nil {
		return nil, storeError("delete todo", err)
	}
	return todo, nil
}

func (s *Service) mutate(ctx context.Context, user *model.User, id string, apply func(*model.Todo)) (*model.Todo, error) {
	todo, err := s.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	apply(todo)
	todo.UpdatedAt = s.now().UTC()
	if err := s.todos.UpdateTodo(ctx, todo); err != nil {
		return nil, storeError("update todo", err)
	}
	return todo, nil
}

// load は To-Do を取得し、呼び出し元が変更してよいかを確認します。
func (s *Service) load(ctx context.Context, user *model.User, id string) (*model.Todo, error) {
	todo, err := s.todos.GetTodo(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, storeError("get todo", err)
	}
	if !s.canModify(user, todo.UserID) {
		return nil, apperr.Forbidden("not authorized to modify this todo")
	}
	return todo, nil
}

func (s *Service) canModify(user *model.User, ownerID string) bool {
	if s.adminOverride {
		return auth.AuthorizeOwnerOrAdmin(user, ownerID)
	}
	return user != nil && user.ID == ownerID
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.Validation("title is required")
	}
	if len([]rune(title)) > maxTitleLength {
		return "", apperr.Validation("title is too long")
	}
	return title, nil
}

func storeError(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(apperr.CodeNotFound, "Todo not found")
	}
	return apperr.Persistence(op, err)
}
