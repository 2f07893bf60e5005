package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/todo-api/internal/model"
	"github.com/yourusername/todo-api/internal/store/sqlite"
)

func runApp(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	base := []string{"todoctl", "--driver", "sqlite", "--database", dbPath, "--bcrypt-cost", "4"}
	err := app.Run(append(base, args...))
	return out.String(), err
}

func TestCreateAdmin(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ctl.db")

	out, err := runApp(t, dbPath, "create-admin", "--name", "Root", "--email", "root@example.com", "--password", "Adm1n$ecret")
	require.NoError(t, err)
	assert.Contains(t, out, "created admin root@example.com")

	st, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	user, err := st.GetUserByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	assert.NotEqual(t, "Adm1n$ecret", user.PasswordHash)
}

func TestCreateAdminRejectsWeakPassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ctl.db")

	_, err := runApp(t, dbPath, "create-admin", "--name", "Root", "--email", "root@example.com", "--password", "weak")
	require.Error(t, err)
}

func TestSeedDemoIsRepeatable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ctl.db")

	out, err := runApp(t, dbPath, "seed-demo")
	require.NoError(t, err)
	assert.Contains(t, out, "created admin@example.com")
	assert.Contains(t, out, "created r2@y.com")

	out, err = runApp(t, dbPath, "seed-demo")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped admin@example.com")
	assert.Contains(t, out, "skipped r2@y.com")
}

func TestPurgeTodos(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ctl.db")
	_, err := runApp(t, dbPath, "seed-demo")
	require.NoError(t, err)

	ctx := context.Background()
	st, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	user, err := st.GetUserByEmail(ctx, "r2@y.com")
	require.NoError(t, err)
	require.NoError(t, st.CreateTodo(ctx, &model.Todo{
		ID:        uuid.NewString(),
		Title:     "leftover",
		UserID:    user.ID,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.CreatedAt,
	}))
	require.NoError(t, st.Close())

	out, err := runApp(t, dbPath, "purge-todos", "--user", user.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "purged todos of "+user.ID)

	st, err = sqlite.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	todos, err := st.ListTodos(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, todos)
}
