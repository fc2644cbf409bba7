//go:build !production

package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/who-spies/internal/server/storage"
)

// MockStore 共享存储 mock
type MockStore struct {
	mock.Mock
}

// Load 返回值可以是快照，也可以是每次调用都执行的 func(context.Context) (*storage.Snapshot, error)
func (m *MockStore) Load(ctx context.Context) (*storage.Snapshot, error) {
	args := m.Called(ctx)
	if fn, ok := args.Get(0).(func(context.Context) (*storage.Snapshot, error)); ok {
		return fn(ctx)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Snapshot), args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, snap *storage.Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// HookStore 包装真实存储，在每次 Save 前调用 BeforeSave（用于制造并发写入）
type HookStore struct {
	storage.Store

	mu         sync.Mutex
	saves      int
	BeforeSave func(attempt int)
}

func (h *HookStore) Save(ctx context.Context, snap *storage.Snapshot) error {
	h.mu.Lock()
	h.saves++
	attempt := h.saves
	hook := h.BeforeSave
	h.mu.Unlock()

	if hook != nil {
		hook(attempt)
	}
	return h.Store.Save(ctx, snap)
}

// Saves 返回 Save 被调用的次数
func (h *HookStore) Saves() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.saves
}
