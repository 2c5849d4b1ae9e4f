package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/yourusername/stoolpool-api/internal/pkg/errors"
)

// CacheRepo реализует repository.CacheRepository.
// Все ключи хранятся в пространстве имен prefix, чтобы несколько окружений могли делить один Redis.
type CacheRepo struct {
	client redis.UniversalClient
	prefix string
}

// NewCacheRepo создает новый репозиторий кеша
func NewCacheRepo(client redis.UniversalClient, prefix string) (*CacheRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for CacheRepo")
	}
	return &CacheRepo{client: client, prefix: prefix}, nil
}

func (r *CacheRepo) key(key string) string {
	return r.prefix + key
}

// Set сохраняет строковое значение (маркеры отзыва токенов)
func (r *CacheRepo) Set(key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(context.Background(), r.key(key), value, expiration).Err()
}

// Get возвращает значение или apperrors.ErrNotFound, если ключа нет
func (r *CacheRepo) Get(key string) (string, error) {
	val, err := r.client.Get(context.Background(), r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.ErrNotFound
	}
	return val, err
}

func (r *CacheRepo) Delete(key string) error {
	return r.client.Del(context.Background(), r.key(key)).Err()
}

// Increment увеличивает счетчик окна rate limit
func (r *CacheRepo) Increment(key string) (int64, error) {
	return r.client.Incr(context.Background(), r.key(key)).Result()
}

// SetJSON кеширует структуру (сводка статистики пользователя)
func (r *CacheRepo) SetJSON(key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value for %s: %w", key, err)
	}
	return r.client.Set(context.Background(), r.key(key), data, expiration).Err()
}

// GetJSON читает структуру из кеша. Нечитаемое значение (например, после смены формата DTO)
// удаляется и считается промахом кеша.
func (r *CacheRepo) GetJSON(key string, dest interface{}) error {
	ctx := context.Background()
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("[CacheRepo] Повреждённое значение %s, удаляем: %v", key, err)
		if delErr := r.client.Del(ctx, r.key(key)).Err(); delErr != nil {
			log.Printf("[CacheRepo] Не удалось удалить %s: %v", key, delErr)
		}
		return apperrors.ErrNotFound
	}
	return nil
}

// Expire задаёт время жизни ключа, используется для окон rate limit
func (r *CacheRepo) Expire(key string, expiration time.Duration) error {
	return r.client.Expire(context.Background(), r.key(key), expiration).Err()
}

// TTL возвращает оставшееся время жизни ключа. Для ключа без TTL или отсутствующего ключа возвращается 0
func (r *CacheRepo) TTL(key string) (time.Duration, error) {
	ttl, err := r.client.TTL(context.Background(), r.key(key)).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// SetNX устанавливает значение, только если ключа еще нет (одноразовые WS-тикеты).
// Возвращает false, если ключ уже существовал.
func (r *CacheRepo) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	return r.client.SetNX(context.Background(), r.key(key), value, expiration).Result()
}
