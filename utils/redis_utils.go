package utils

import (
	"context"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// GetRedisClient connects to the redis at REDIS_HOST:REDIS_PORT,
// authenticating with REDIS_PASSWD.
func GetRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
}

// PingRedis fails when the redis server cannot be reached.
func PingRedis(ctx context.Context, client *redis.Client) error {
	return errors.Wrapf(client.Ping(ctx).Err(), "redis at %s is unreachable", client.Options().Addr)
}
