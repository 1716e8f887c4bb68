package test

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

// NewRedisDB returns a redis client on a randomly selected DB so
// concurrently running packages do not share revocation or rate
// limit keys. The DB is flushed before it is returned.
func NewRedisDB() (*redis.Client, error) {
	// nolint:gosec // crypto/rand not applicable for test package
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}

	redisConfig, err := redis.ParseURL(fmt.Sprintf("redis://:swordfish@%s:6379/%d", host, r.Intn(16)))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	db := redis.NewClient(redisConfig)
	if err = db.Ping(ctx).Err(); err != nil {
		db.Close()
		return nil, err
	}

	if err = db.FlushDB(ctx).Err(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
