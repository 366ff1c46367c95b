package db

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects a client from REDIS_ADDR / REDIS_PWD / REDIS_DB.
// Returns nil when Redis is not configured; the snapshot cache is an
// optional layer and the service runs without it.
func InitRedis() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("Redis not configured, state snapshots will not be cached")
		return nil
	}

	dbIndex, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PWD"),
		DB:       dbIndex,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Error connecting to Redis: %v", err)
	}
	return client
}
