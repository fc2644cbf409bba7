package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/who-spies/internal/config"
	"github.com/palemoky/who-spies/internal/logger"
)

// Open 按配置创建共享存储
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.LogInfo("💾 使用内存存储")
		return NewMemoryStore(), nil
	case config.BackendFile:
		logger.LogInfo("💾 使用文件存储: %s", cfg.Store.Path)
		return NewFileStore(cfg.Store.Path), nil
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}

		logger.LogInfo("💾 使用 Redis 存储: %s key=%s", cfg.Redis.Addr, cfg.Store.Key)
		return NewRedisStore(rdb, cfg.Store.Key, cfg.Store.TTLDuration()), nil
	default:
		return nil, fmt.Errorf("未知的存储后端: %q", cfg.Store.Backend)
	}
}
