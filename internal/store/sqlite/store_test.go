package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/todo-api/internal/model"
	"github.com/yourusername/todo-api/internal/store"
	"github.com/yourusername/todo-api/internal/store/storetest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "todo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTestStore(t)
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestDeleteUserCascadesTodos(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	u := storetest.NewUser("cascade@example.com")
	require.NoError(t, s.CreateUser(ctx, u))
	ts := time.Now().UTC()
	require.NoError(t, s.CreateTodo(ctx, &model.Todo{
		ID: uuid.NewString(), Title: "x", UserID: u.ID, CreatedAt: ts, UpdatedAt: ts,
	}))

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	todos, err := s.ListTodos(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, todos)
}
