package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/common"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
)

const redisMaxTxRetries = 16

// RedisStore keeps each contract as a JSON string and the insertion order in a list.
// Update uses WATCH/MULTI so concurrent writers retry instead of overwriting.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisStore(client *redis.Client, prefix string, logger *slog.Logger) *RedisStore {
	if prefix == "" {
		prefix = "contracts"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, prefix: prefix, logger: logger}
}

func (s *RedisStore) contractKey(id string) string {
	return fmt.Sprintf("%s:contract:%s", s.prefix, id)
}

func (s *RedisStore) orderKey() string {
	return s.prefix + ":order"
}

func (s *RedisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStore) Create(ctx context.Context, c *entity.Contract) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode contract: %w", err)
	}
	key := s.contractKey(c.ID)
	return s.withRetry(ctx, func() error {
		return s.client.Watch(ctx, func(tx *redis.Tx) error {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				return common.WrapError(common.ErrInvalidInput, fmt.Sprintf("contract %s already exists", c.ID))
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, b, 0)
				pipe.RPush(ctx, s.orderKey(), c.ID)
				return nil
			})
			return err
		}, key)
	})
}

func (s *RedisStore) Get(ctx context.Context, id string) (*entity.Contract, error) {
	b, err := s.client.Get(ctx, s.contractKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	return decodeContract(b)
}

func (s *RedisStore) List(ctx context.Context, status *constants.ContractStatus) ([]*entity.Contract, error) {
	ids, err := s.client.LRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	out := make([]*entity.Contract, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.contractKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			s.logger.Warn("repository.redis.dangling_id", "contract_id", ids[i])
			continue
		}
		c, err := decodeContract([]byte(raw))
		if err != nil {
			return nil, err
		}
		if status != nil && c.Status != *status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(*entity.Contract) error) (*entity.Contract, error) {
	key := s.contractKey(id)
	var updated *entity.Contract
	err := s.withRetry(ctx, func() error {
		return s.client.Watch(ctx, func(tx *redis.Tx) error {
			b, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return notFound(id)
			}
			if err != nil {
				return err
			}
			c, err := decodeContract(b)
			if err != nil {
				return err
			}
			if err := fn(c); err != nil {
				return err
			}
			c.UpdatedAt = time.Now().UTC()
			nb, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("encode contract: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, nb, 0)
				return nil
			})
			if err == nil {
				updated = c
			}
			return err
		}, key)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// withRetry reruns op while a watched key changed under it.
func (s *RedisStore) withRetry(ctx context.Context, op func() error) error {
	for i := 0; i < redisMaxTxRetries; i++ {
		err := op()
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.logger.Debug("repository.redis.tx_retry", "attempt", i+1)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return common.WrapError(common.ErrDatabase, "redis transaction retries exhausted")
}

func decodeContract(b []byte) (*entity.Contract, error) {
	var c entity.Contract
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode contract: %w", err)
	}
	return &c, nil
}
