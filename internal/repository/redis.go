package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
	"github.com/redis/go-redis/v9"
)

// failedMarker хранится вместо деталей, если загрузка заказа не удалась.
const failedMarker = "null"

const scanBatch = 200

// RedisStorage хранит записи кеша в Redis под ключами prefix+orderID без TTL.
// Рассчитан на одиночный Redis: SCAN по кластеру обходит только один узел.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) key(orderID string) string {
	return s.prefix + orderID
}

func (s *RedisStorage) Get(ctx context.Context, orderID string) (OrderEntry, bool, error) {
	raw, err := s.client.Get(ctx, s.key(orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return OrderEntry{}, false, nil
	}
	if err != nil {
		return OrderEntry{}, false, fmt.Errorf("redis get %s: %w", orderID, err)
	}
	entry, err := decodeEntry(raw)
	if err != nil {
		return OrderEntry{}, false, fmt.Errorf("decode cached order %s: %w", orderID, err)
	}
	return entry, true, nil
}

func (s *RedisStorage) Set(ctx context.Context, orderID string, entry OrderEntry) error {
	raw, err := encodeEntry(entry)
	if err != nil {
		return fmt.Errorf("encode order %s: %w", orderID, err)
	}
	if err := s.client.Set(ctx, s.key(orderID), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", orderID, err)
	}
	return nil
}

func (s *RedisStorage) Snapshot(ctx context.Context) (map[string]OrderEntry, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]OrderEntry, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	// GET по одному ключу в пайплайне: ключи не обязаны лежать в одном слоте.
	for begin := 0; begin < len(keys); begin += scanBatch {
		batch := keys[begin:min(begin+scanBatch, len(keys))]
		cmds := make([]*redis.StringCmd, len(batch))
		_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, k := range batch {
				cmds[i] = pipe.Get(ctx, k)
			}
			return nil
		})
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("redis pipeline get: %w", err)
		}
		if err := collectEntries(out, s.prefix, batch, cmds); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// collectEntries раскладывает ответы GET по orderID. Ключ, удаленный между
// SCAN и GET, пропускается.
func collectEntries(out map[string]OrderEntry, prefix string, keys []string, cmds []*redis.StringCmd) error {
	for i, cmd := range cmds {
		raw, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis get %s: %w", keys[i], err)
		}
		entry, err := decodeEntry(raw)
		if err != nil {
			return fmt.Errorf("decode cached order %s: %w", keys[i], err)
		}
		out[strings.TrimPrefix(keys[i], prefix)] = entry
	}
	return nil
}

func (s *RedisStorage) Clear(ctx context.Context) error {
	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		if err := s.client.Unlink(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("redis unlink: %w", err)
		}
	}
	return nil
}

func (s *RedisStorage) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

func encodeEntry(entry OrderEntry) (string, error) {
	if entry.Failed {
		return failedMarker, nil
	}
	details := entry.Details
	if details == nil {
		details = []models.OrderDetailsWithStatus{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeEntry(raw string) (OrderEntry, error) {
	if raw == failedMarker {
		return OrderEntry{Failed: true}, nil
	}
	var details []models.OrderDetailsWithStatus
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return OrderEntry{}, err
	}
	if details == nil {
		details = []models.OrderDetailsWithStatus{}
	}
	return OrderEntry{Details: details}, nil
}
