package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/todo-api/internal/model"
	"github.com/yourusername/todo-api/internal/store/sqlite"
	"github.com/yourusername/todo-api/internal/store/storetest"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func seedStore(t *testing.T) (*sqlite.Store, *model.User, *model.User) {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	owner := storetest.NewUser("owner@example.com")
	other := storetest.NewUser("other@example.com")
	require.NoError(t, s.CreateUser(ctx, owner))
	require.NoError(t, s.CreateUser(ctx, other))

	now := time.Now().UTC()
	for i, userID := range []string{owner.ID, owner.ID, other.ID} {
		require.NoError(t, s.CreateTodo(ctx, &model.Todo{
			ID:        uuid.NewString(),
			Title:     "item",
			UserID:    userID,
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
			UpdatedAt: now,
		}))
	}
	return s, owner, other
}

func TestNewPurgeTask(t *testing.T) {
	task, err := NewPurgeTask(" user-1 ")
	require.NoError(t, err)
	assert.Equal(t, TaskTypePurgeTodos, task.Type())

	var payload PurgePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "user-1", payload.UserID)

	_, err = NewPurgeTask("  ")
	assert.Error(t, err)
}

func TestPurgeHandlerRemovesOnlyOwnerTodos(t *testing.T) {
	s, owner, other := seedStore(t)
	handler := NewPurgeHandler(s, quietLogger())

	task, err := NewPurgeTask(owner.ID)
	require.NoError(t, err)
	require.NoError(t, handler.ProcessTask(context.Background(), task))

	remaining, err := s.ListTodos(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	untouched, err := s.ListTodos(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Len(t, untouched, 1)
}

func TestPurgeHandlerSkipsRetryOnBadPayload(t *testing.T) {
	s, _, _ := seedStore(t)
	handler := NewPurgeHandler(s, quietLogger())

	for _, body := range [][]byte{[]byte("not json"), []byte(`{"userId":""}`)} {
		err := handler.ProcessTask(context.Background(), asynq.NewTask(TaskTypePurgeTodos, body))
		require.Error(t, err)
		assert.True(t, errors.Is(err, asynq.SkipRetry))
	}
}

func TestInlinePurger(t *testing.T) {
	s, owner, _ := seedStore(t)
	purger := NewInlinePurger(s, quietLogger())

	require.NoError(t, purger.PurgeTodos(context.Background(), owner.ID))
	remaining, err := s.ListTodos(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	assert.Error(t, purger.PurgeTodos(context.Background(), ""))
}

func TestNewManagerValidatesInput(t *testing.T) {
	s, _, _ := seedStore(t)

	_, err := NewManager("redis://127.0.0.1:6379/0", nil, quietLogger())
	assert.Error(t, err)

	_, err = NewManager("http://not-redis", s, quietLogger())
	assert.Error(t, err)
}
