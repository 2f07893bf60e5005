// Package jobs は削除済みユーザーの To-Do をバックグラウンドで片付けます。
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/todo-api/internal/store"
)

// PurgeHandler は TaskTypePurgeTodos を処理する asynq.Handler です。
type PurgeHandler struct {
	todos  store.TodoStore
	logger logrus.FieldLogger
}

// NewPurgeHandler は PurgeHandler を作成します。
func NewPurgeHandler(todos store.TodoStore, logger logrus.FieldLogger) *PurgeHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PurgeHandler{todos: todos, logger: logger}
}

// ProcessTask はペイロードのユーザーが所有する To-Do をすべて削除します。
func (h *PurgeHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload PurgePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.UserID == "" {
		return fmt.Errorf("missing userId in payload: %w", asynq.SkipRetry)
	}
	return purge(ctx, h.todos, h.logger, payload.UserID)
}

// InlinePurger はキューを使わずにその場で To-Do を削除します。
type InlinePurger struct {
	todos  store.TodoStore
	logger logrus.FieldLogger
}

// NewInlinePurger は InlinePurger を作成します。
func NewInlinePurger(todos store.TodoStore, logger logrus.FieldLogger) *InlinePurger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &InlinePurger{todos: todos, logger: logger}
}

// PurgeTodos は userID の To-Do をすべて削除します。
func (p *InlinePurger) PurgeTodos(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("userID is required")
	}
	return purge(ctx, p.todos, p.logger, userID)
}

func purge(ctx context.Context, todos store.TodoStore, logger logrus.FieldLogger, userID string) error {
	removed, err := todos.DeleteTodosByOwner(ctx, userID)
	if err != nil {
		return fmt.Errorf("purge todos user=%s: %w", userID, err)
	}
	logger.WithFields(logrus.Fields{
		"user_id": userID,
		"removed": removed,
	}).Info("purged todos")
	return nil
}
