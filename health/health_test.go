package health

import (
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRunAggregates(t *testing.T) {
	status, results := Run(nil)
	assert.Equal(t, StatusUp, status)
	assert.Empty(t, results)

	status, results = Run([]Named{
		{Name: "cache", Check: func() error { return nil }},
		{Name: "redis", Check: func() error { return errors.New("connection refused") }},
	})
	assert.Equal(t, StatusDown, status)
	assert.Equal(t, []Result{
		{Name: "cache", Status: StatusUp},
		{Name: "redis", Status: StatusDown, Error: "connection refused"},
	}, results)
}

func TestRedisChecker(t *testing.T) {
	assert.Error(t, RedisChecker(nil)())

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()
	assert.Error(t, RedisChecker(client)())
}
