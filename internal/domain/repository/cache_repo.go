package repository

import (
	"time"
)

// CacheRepository - кеш статистики, маркеры отзыва токенов, одноразовые тикеты и счетчики rate limit.
// Get и GetJSON возвращают apperrors.ErrNotFound при промахе.
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	SetNX(key string, value interface{}, expiration time.Duration) (bool, error)

	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error

	Increment(key string) (int64, error)
	Expire(key string, expiration time.Duration) error
	TTL(key string) (time.Duration, error)
}
