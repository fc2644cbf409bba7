package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore 把整个集合保存在一个 Redis 键中，Save 通过 WATCH/MULTI 实现乐观并发
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore 创建 Redis 存储，ttl 为 0 表示不过期
func NewRedisStore(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, key: key, ttl: ttl}
}

// Load 读取完整集合
func (rs *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := rs.client.Get(ctx, rs.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return NewSnapshot(), nil
		}
		return nil, err
	}
	return decodeOrEmpty(data), nil
}

// Save 在事务中比较版本并写入
func (rs *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	err := rs.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, rs.key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if decodeOrEmpty(current).Version != snap.Version {
			return ErrVersionConflict
		}

		data, err := encodeNext(snap)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rs.key, data, rs.ttl)
			return nil
		})
		return err
	}, rs.key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}
	snap.Version++
	return nil
}

// Close 关闭 Redis 连接
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
