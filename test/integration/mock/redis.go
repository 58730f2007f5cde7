package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var redisConnOnce sync.Once
var redisConn *redis.Client

// NewRedis returns the process-wide client used by the feature suite.
func NewRedis() *redis.Client {
	redisConnOnce.Do(func() {
		miniRedis, err := miniredis.Run()
		if err != nil {
			panic(err)
		}
		redisConn = redis.NewClient(&redis.Options{Addr: miniRedis.Addr()})
	})
	return redisConn
}

// NewTestRedis starts a miniredis server private to one test.
// The server is returned so tests can fast-forward TTLs.
func NewTestRedis(tb testing.TB) (*redis.Client, *miniredis.Miniredis) {
	tb.Helper()

	server := miniredis.RunT(tb)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	tb.Cleanup(func() {
		_ = client.Close()
	})
	return client, server
}

// ClearRedis drops every key.
func ClearRedis(client *redis.Client) error {
	return client.FlushAll(context.TODO()).Err()
}
