package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/todo-api/internal/store"
)

// Manager は削除タスクの投入とワーカーの起動を担います。
type Manager struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *logrus.Logger
}

// NewManager は Manager を初期化します。
func NewManager(redisURL string, todos store.TodoStore, logger *logrus.Logger) (*Manager, error) {
	if todos == nil {
		return nil, errors.New("todos is nil")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				queueName: 1,
			},
			Logger: logger,
		},
	)

	mux := asynq.NewServeMux()
	mux.Handle(TaskTypePurgeTodos, NewPurgeHandler(todos, logger))
	return &Manager{
		client: asynq.NewClient(opt),
		server: server,
		mux:    mux,
		logger: logger,
	}, nil
}

// StartWorkers は Asynq サーバーをバックグラウンドで起動します。
func (m *Manager) StartWorkers() {
	go func() {
		if err := m.server.Run(m.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			m.logger.WithError(err).Error("asynq server stopped")
		}
	}()
}

// Shutdown はサーバーとクライアントを閉じます。
func (m *Manager) Shutdown() error {
	m.server.Shutdown()
	return m.client.Close()
}

// PurgeTodos は userID の To-Do 削除タスクを投入します。
func (m *Manager) PurgeTodos(ctx context.Context, userID string) error {
	task, err := NewPurgeTask(userID)
	if err != nil {
		return err
	}
	info, err := m.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue purge user=%s: %w", userID, err)
	}
	m.logger.WithFields(logrus.Fields{
		"task_id": info.ID,
		"user_id": userID,
	}).Debug("enqueued purge task")
	return nil
}
