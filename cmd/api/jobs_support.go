package main

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/todo-api/internal/auth"
	"github.com/yourusername/todo-api/internal/config"
	"github.com/yourusername/todo-api/internal/jobs"
	"github.com/yourusername/todo-api/internal/store"
)

// setupJobs は削除済みユーザーの To-Do を片付ける仕組みを用意します。
// QUEUE_REDIS_URL が空の場合はリクエスト内でそのまま削除します。
func setupJobs(cfg *config.Config, st store.TodoStore, logger *logrus.Logger) (auth.TodoPurger, func(), error) {
	if cfg.QueueRedisURL == "" {
		return jobs.NewInlinePurger(st, logger), func() {}, nil
	}

	manager, err := jobs.NewManager(cfg.QueueRedisURL, st, logger)
	if err != nil {
		return nil, nil, err
	}
	manager.StartWorkers()
	shutdown := func() {
		if err := manager.Shutdown(); err != nil {
			logger.WithError(err).Warn("failed to close job client")
		}
	}
	return manager, shutdown, nil
}
