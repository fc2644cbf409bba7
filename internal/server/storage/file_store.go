package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay 等待文件锁时的重试间隔
const lockRetryDelay = 5 * time.Millisecond

// FileStore 把整个集合保存为一个 JSON 文件，写入时先写临时文件再原子替换。
// 保存期间持有 <path>.lock 上的排他文件锁，多个进程共用同一文件时版本比较同样有效。
type FileStore struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex // 同一 Flock 实例重复加锁直接成功，进程内先互斥
}

// NewFileStore 创建文件存储
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// Path 返回数据文件路径
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) read() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", f.path, err)
	}
	return data, nil
}

// Load 读取完整集合，文件不存在或损坏时返回空集合
func (f *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := f.read()
	if err != nil {
		return nil, err
	}
	return decodeOrEmpty(data), nil
}

// Save 持有文件锁，比较版本后整体写入
func (f *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	unlock, err := f.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := f.read()
	if err != nil {
		return err
	}
	if decodeOrEmpty(current).Version != snap.Version {
		return ErrVersionConflict
	}

	data, err := encodeNext(snap)
	if err != nil {
		return err
	}
	if err := writeAtomic(f.path, data); err != nil {
		return err
	}
	snap.Version++
	return nil
}

// acquire 获取跨进程排他锁，ctx 结束时放弃等待
func (f *FileStore) acquire(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return nil, fmt.Errorf("创建目录失败: %w", err)
	}
	locked, err := f.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("获取文件锁 %s 失败: %w", f.lock.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("获取文件锁 %s 失败: %w", f.lock.Path(), ctx.Err())
	}
	return func() { _ = f.lock.Unlock() }, nil
}

// Close 释放锁文件句柄
func (f *FileStore) Close() error {
	return f.lock.Close()
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建目录 %s 失败: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("设置文件权限失败: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("替换 %s 失败: %w", path, err)
	}
	return nil
}
