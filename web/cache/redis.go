// Package cache provides the optional Redis backend for web sessions.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taskwire/taskwire/logger"
)

var client *redis.Client

// InitRedis connects to the Redis server used for session storage. Sessions
// stay in signed cookies when no address is configured.
func InitRedis(addr, password string) error {
	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		client = nil
		return fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	logger.Info("connected to redis at", addr)
	return nil
}

// GetClient returns the Redis client, nil when Redis is not configured.
func GetClient() *redis.Client {
	return client
}

// Close releases the Redis connection.
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}
