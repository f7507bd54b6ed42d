package redis

import (
	"context"
	"time"

	"LovMapServer/config"

	"github.com/redis/go-redis/v9"
)

var global *redis.Client

// Client 返回全局 Redis 客户端（未初始化时为 nil）。
func Client() *redis.Client { return global }

// ReplaceGlobal 设置全局 Redis 客户端，进程启动时调用一次。
func ReplaceGlobal(c *redis.Client) { global = c }

// Build 根据配置构建 Redis 客户端并做一次 Ping 探活。
func Build(cfg config.RedisConfig) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}
