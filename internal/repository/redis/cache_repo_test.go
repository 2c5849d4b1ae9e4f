package redis

import (
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCacheRepo_NilClient(t *testing.T) {
	repo, err := NewCacheRepo(nil, "stoolpool:")

	assert.Nil(t, repo)
	assert.Error(t, err)
}

func TestCacheRepo_KeyNamespace(t *testing.T) {
	// Клиент не подключается к серверу до первой команды
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{"127.0.0.1:0"}})
	defer client.Close()

	repo, err := NewCacheRepo(client, "stoolpool:")
	require.NoError(t, err)
	assert.Equal(t, "stoolpool:stats:user:7", repo.key("stats:user:7"))

	bare, err := NewCacheRepo(client, "")
	require.NoError(t, err)
	assert.Equal(t, "rl:auth:192.0.2.1", bare.key("rl:auth:192.0.2.1"))
}
