package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/todo-api/internal/model"
	"github.com/yourusername/todo-api/internal/store"
)

// CreateTodo は所有者の存在を確認しながら To-Do を保存し、所有者の索引に追加します。
// 所有者が存在しない場合は store.ErrNotFound を返します。
func (s *Store) CreateTodo(ctx context.Context, t *model.Todo) error {
	if t == nil {
		return fmt.Errorf("todo is nil")
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return err
	}
	owner := userKey(t.UserID)
	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.Exists(ctx, owner).Result()
			if err != nil {
				return err
			}
			if exists == 0 {
				return store.ErrNotFound
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, todoKey(t.ID), payload, 0)
				pipe.ZAdd(ctx, ownerTodosKey(t.UserID), redis.Z{
					Score:  float64(t.CreatedAt.UnixMilli()),
					Member: t.ID,
				})
				return nil
			})
			return err
		}, owner)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("save todo: %w", err)
		}
		return err
	}
	return fmt.Errorf("save todo %s: too many concurrent writers", t.ID)
}

// GetTodo は ID で To-Do を取得します。
func (s *Store) GetTodo(ctx context.Context, id string) (*model.Todo, error) {
	if id == "" {
		return nil, store.ErrNotFound
	}
	return getTodo(ctx, s.rdb, id)
}

// ListTodos は所有者の To-Do を作成順に返します。
func (s *Store) ListTodos(ctx context.Context, ownerID string) ([]model.Todo, error) {
	ids, err := s.rdb.ZRange(ctx, ownerTodosKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	todos := make([]model.Todo, 0, len(ids))
	if len(ids) == 0 {
		return todos, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = todoKey(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// インデックスだけが残っている場合は読み飛ばす
			continue
		}
		var t model.Todo
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, nil
}

// UpdateTodo はタイトルと完了状態を楽観ロックで更新します。所有者は保存済みの値を維持します。
func (s *Store) UpdateTodo(ctx context.Context, t *model.Todo) error {
	if t == nil {
		return fmt.Errorf("todo is nil")
	}
	key := todoKey(t.ID)
	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			current, err := getTodo(ctx, tx, t.ID)
			if err != nil {
				return err
			}
			current.Title = t.Title
			current.Completed = t.Completed
			current.UpdatedAt = t.UpdatedAt
			payload, err := json.Marshal(current)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, 0)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update todo %s: too many concurrent writers", t.ID)
}

// DeleteTodo は To-Do と所有者インデックスの要素を削除します。
func (s *Store) DeleteTodo(ctx context.Context, id string) error {
	t, err := s.GetTodo(ctx, id)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, todoKey(id))
	pipe.ZRem(ctx, ownerTodosKey(t.UserID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

// DeleteTodosByOwner は所有者の To-Do をすべて削除し、削除件数を返します。
func (s *Store) DeleteTodosByOwner(ctx context.Context, ownerID string) (int, error) {
	indexKey := ownerTodosKey(ownerID)
	ids, err := s.rdb.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("delete todos by owner: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.rdb.TxPipeline()
	dels := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		dels[i] = pipe.Del(ctx, todoKey(id))
	}
	pipe.Del(ctx, indexKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("delete todos by owner: %w", err)
	}

	removed := 0
	for _, cmd := range dels {
		removed += int(cmd.Val())
	}
	return removed, nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getTodo(ctx context.Context, c stringGetter, id string) (*model.Todo, error) {
	data, err := c.Get(ctx, todoKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	var t model.Todo
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
