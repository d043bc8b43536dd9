package database

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/kidzonehq/kidzone-backend/internal/config"
)

var Redis *redis.Client
var Ctx = context.Background()

// InitRedis connects the shared Redis client. Redis is optional: without
// it the live-update fanout stays in-process only.
func InitRedis() {
	if config.AppConfig.RedisAddr == "" {
		log.Println("REDIS_ADDR not set, cross-process chat fanout disabled")
		return
	}

	Redis = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       0,
	})

	_, err := Redis.Ping(Ctx).Result()
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Cross-process chat fanout will be disabled.", err)
		Redis = nil
	} else {
		log.Println("Connected to Redis successfully")
	}
}
