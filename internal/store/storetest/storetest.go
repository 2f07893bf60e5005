// Package storetest は store.Store 実装に共通する振る舞いのテストを提供します。
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/todo-api/internal/model"
	"github.com/yourusername/todo-api/internal/store"
)

// Factory はテストごとに空のストアを返します。
type Factory func(t *testing.T) store.Store

// Run は全ケースを実行します。
func Run(t *testing.T, newStore Factory) {
	t.Run("UserRoundTrip", func(t *testing.T) { testUserRoundTrip(t, newStore(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("ConcurrentDuplicateEmail", func(t *testing.T) { testConcurrentDuplicateEmail(t, newStore(t)) })
	t.Run("EmailIsCaseSensitive", func(t *testing.T) { testEmailCaseSensitive(t, newStore(t)) })
	t.Run("DeleteUser", func(t *testing.T) { testDeleteUser(t, newStore(t)) })
	t.Run("CreateTodoRequiresExistingOwner", func(t *testing.T) { testCreateTodoRequiresExistingOwner(t, newStore(t)) })
	t.Run("TodoLifecycle", func(t *testing.T) { testTodoLifecycle(t, newStore(t)) })
	t.Run("TodosScopedToOwner", func(t *testing.T) { testTodosScopedToOwner(t, newStore(t)) })
	t.Run("DeleteTodosByOwner", func(t *testing.T) { testDeleteTodosByOwner(t, newStore(t)) })
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// NewUser は保存前のユーザーを作成します。
func NewUser(email string) *model.User {
	ts := now()
	return &model.User{
		ID:           uuid.NewString(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuvabcdefghijklmnopqrstuvwxyz01234",
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

func newTodo(ownerID, title string, createdAt time.Time) *model.Todo {
	return &model.Todo{
		ID:        uuid.NewString(),
		Title:     title,
		UserID:    ownerID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func testUserRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("alice@example.com")
	u.IsAdmin = true
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.Name, got.Name)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.True(t, got.IsAdmin)
	assert.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Millisecond)

	byEmail, err := s.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = s.GetUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDuplicateEmail(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("dup@example.com")))
	err := s.CreateUser(ctx, NewUser("dup@example.com"))
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func testConcurrentDuplicateEmail(t *testing.T, s store.Store) {
	ctx := context.Background()
	const attempts = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		other     []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CreateUser(ctx, NewUser("race@example.com"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, store.ErrDuplicateEmail):
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 1, succeeded)
}

func testEmailCaseSensitive(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("Bob@example.com")))
	require.NoError(t, s.CreateUser(ctx, NewUser("bob@example.com")))
}

func testDeleteUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("carol@example.com")
	require.NoError(t, s.CreateUser(ctx, u))
	require.NoError(t, s.DeleteUser(ctx, u.ID))

	_, err := s.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), store.ErrNotFound)

	// 削除後は同じメールアドレスで再登録できる
	require.NoError(t, s.CreateUser(ctx, NewUser("carol@example.com")))
}

func testCreateTodoRequiresExistingOwner(t *testing.T, s store.Store) {
	ctx := context.Background()

	orphan := newTodo(uuid.NewString(), "orphan", now())
	assert.ErrorIs(t, s.CreateTodo(ctx, orphan), store.ErrNotFound)
	_, err := s.GetTodo(ctx, orphan.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// 削除済みユーザーにも追加できない
	gone := NewUser("gone@example.com")
	require.NoError(t, s.CreateUser(ctx, gone))
	require.NoError(t, s.DeleteUser(ctx, gone.ID))
	late := newTodo(gone.ID, "late", now())
	assert.ErrorIs(t, s.CreateTodo(ctx, late), store.ErrNotFound)

	todos, err := s.ListTodos(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, todos)
	_, err = s.GetTodo(ctx, late.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testTodoLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := NewUser("dave@example.com")
	other := NewUser("erin@example.com")
	require.NoError(t, s.CreateUser(ctx, owner))
	require.NoError(t, s.CreateUser(ctx, other))

	todo := newTodo(owner.ID, "buy milk", now())
	require.NoError(t, s.CreateTodo(ctx, todo))

	got, err := s.GetTodo(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got.Title)
	assert.False(t, got.Completed)
	assert.Equal(t, owner.ID, got.UserID)

	got.Title = "buy oat milk"
	got.Completed = true
	got.UserID = other.ID
	got.UpdatedAt = now()
	require.NoError(t, s.UpdateTodo(ctx, got))

	updated, err := s.GetTodo(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy oat milk", updated.Title)
	assert.True(t, updated.Completed)
	assert.Equal(t, owner.ID, updated.UserID, "owner must never be reassigned")

	require.NoError(t, s.DeleteTodo(ctx, todo.ID))
	_, err = s.GetTodo(ctx, todo.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTodo(ctx, todo.ID), store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateTodo(ctx, todo), store.ErrNotFound)
}

func testTodosScopedToOwner(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := NewUser("alice2@example.com")
	bob := NewUser("bob2@example.com")
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NoError(t, s.CreateUser(ctx, bob))

	base := now()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateTodo(ctx, newTodo(alice.ID, fmt.Sprintf("alice-%d", i), base.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, s.CreateTodo(ctx, newTodo(bob.ID, "bob-0", base)))

	aliceTodos, err := s.ListTodos(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceTodos, 3)
	for i, todo := range aliceTodos {
		assert.Equal(t, fmt.Sprintf("alice-%d", i), todo.Title)
		assert.Equal(t, alice.ID, todo.UserID)
	}

	none, err := s.ListTodos(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func testDeleteTodosByOwner(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := NewUser("alice3@example.com")
	bob := NewUser("bob3@example.com")
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NoError(t, s.CreateUser(ctx, bob))

	base := now()
	require.NoError(t, s.CreateTodo(ctx, newTodo(alice.ID, "a", base)))
	require.NoError(t, s.CreateTodo(ctx, newTodo(alice.ID, "b", base.Add(time.Second))))
	require.NoError(t, s.CreateTodo(ctx, newTodo(bob.ID, "c", base)))

	n, err := s.DeleteTodosByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := s.ListTodos(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	bobTodos, err := s.ListTodos(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, bobTodos, 1)

	n, err = s.DeleteTodosByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
