package storage

import (
	"context"
	"sync"
)

// MemoryStore 进程内存储，保存编码后的数据以覆盖完整的序列化往返
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load 读取完整集合
func (ms *MemoryStore) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return decodeOrEmpty(ms.data), nil
}

// Save 比较版本后写入完整集合
func (ms *MemoryStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if decodeOrEmpty(ms.data).Version != snap.Version {
		return ErrVersionConflict
	}
	data, err := encodeNext(snap)
	if err != nil {
		return err
	}
	ms.data = data
	snap.Version++
	return nil
}

// SetRaw 直接写入原始数据（测试损坏数据时使用）
func (ms *MemoryStore) SetRaw(data []byte) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.data = data
}

// Close 内存存储无需释放资源
func (ms *MemoryStore) Close() error {
	return nil
}
