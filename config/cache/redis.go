package cache

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"notestash/pkg/logger"
)

// Connect opens the redis client when REDIS_URL is set. Nothing in the
// request path reads or writes it yet; the connection is only verified
// at startup. A failed connection is logged and the server runs without
// redis.
func Connect() *redis.Client {
	url := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if url == "" {
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Sugar.Errorf("Invalid REDIS_URL: %v", err)
		return nil
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Sugar.Errorf("Redis connection error: %v", err)
		rdb.Close()
		return nil
	}

	logger.Sugar.Info("Connected to Redis")
	return rdb
}
