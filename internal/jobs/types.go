package jobs

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/hibiken/asynq"
)

// TaskTypePurgeTodos は削除済みユーザーの To-Do を片付けるタスクです。
const TaskTypePurgeTodos = "todos:purge_owner"

const queueName = "maintenance"

// PurgePayload は TaskTypePurgeTodos のペイロードです。
type PurgePayload struct {
	UserID string `json:"userId"`
}

// NewPurgeTask はキュー投入用のタスクを作成します。
func NewPurgeTask(userID string) (*asynq.Task, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	body, err := json.Marshal(PurgePayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePurgeTodos, body, asynq.Queue(queueName), asynq.MaxRetry(5)), nil
}
