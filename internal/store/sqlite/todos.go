package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yourusername/todo-api/internal/model"
	"github.com/yourusername/todo-api/internal/store"
)

const todoColumns = `id, title, completed, user_id, created_at, updated_at`

// CreateTodo は To-Do を保存します。
func (s *Store) CreateTodo(ctx context.Context, t *model.Todo) error {
	if t == nil {
		return fmt.Errorf("todo is nil")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (`+todoColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, boolToInt(t.Completed), t.UserID,
		toMillis(t.CreatedAt), toMillis(t.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

// GetTodo は ID で To-Do を取得します。
func (s *Store) GetTodo(ctx context.Context, id string) (*model.Todo, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = ?`, id)
	t, err := scanTodo(row)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTodos は所有者の To-Do を作成順に返します。
func (s *Store) ListTodos(ctx context.Context, ownerID string) ([]model.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE user_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]model.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// UpdateTodo はタイトルと完了状態を更新します。user_id は書き換えません。
func (s *Store) UpdateTodo(ctx context.Context, t *model.Todo) error {
	if t == nil {
		return fmt.Errorf("todo is nil")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE todos SET title = ?, completed = ?, updated_at = ? WHERE id = ?`,
		t.Title, boolToInt(t.Completed), toMillis(t.UpdatedAt), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	return requireAffected(res, "update todo")
}

// DeleteTodo は To-Do を削除します。
func (s *Store) DeleteTodo(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return requireAffected(res, "delete todo")
}

// DeleteTodosByOwner は所有者の To-Do をすべて削除し、削除件数を返します。
func (s *Store) DeleteTodosByOwner(ctx context.Context, ownerID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE user_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete todos by owner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete todos by owner: %w", err)
	}
	return int(n), nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanTodo(row rowScanner) (model.Todo, error) {
	var (
		t         model.Todo
		completed int
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&t.ID, &t.Title, &completed, &t.UserID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Todo{}, store.ErrNotFound
		}
		return model.Todo{}, fmt.Errorf("scan todo: %w", err)
	}
	t.Completed = completed != 0
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return t, nil
}
