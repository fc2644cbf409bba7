package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/palemoky/who-spies/internal/game/room"
	"github.com/palemoky/who-spies/internal/logger"
)

// ErrVersionConflict 保存时发现存储中的版本已被其他客户端推进
var ErrVersionConflict = errors.New("storage: version conflict")

// Snapshot 整个房间集合，作为一个整体读写
type Snapshot struct {
	Version uint64                `json:"version"`
	Rooms   map[string]*room.Room `json:"rooms"`
}

// NewSnapshot 创建空快照
func NewSnapshot() *Snapshot {
	return &Snapshot{Rooms: make(map[string]*room.Room)}
}

// Store 共享存储。Load 读取完整集合；Save 以 Version 做比较并交换，
// 成功后 Version 加一，冲突时返回 ErrVersionConflict 且不写入任何数据。
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close() error
}

// Encode 序列化快照
func Encode(snap *Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("序列化房间数据失败: %w", err)
	}
	return data, nil
}

// Decode 反序列化快照
func Decode(data []byte) (*Snapshot, error) {
	snap := NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}
	if snap.Rooms == nil {
		snap.Rooms = make(map[string]*room.Room)
	}
	for id, r := range snap.Rooms {
		if r == nil {
			delete(snap.Rooms, id)
			continue
		}
		r.Normalize()
	}
	return snap, nil
}

// decodeOrEmpty 数据为空或损坏时返回空快照（版本 0），保证存储可自愈
func decodeOrEmpty(data []byte) *Snapshot {
	if len(data) == 0 {
		return NewSnapshot()
	}
	snap, err := Decode(data)
	if err != nil {
		logger.LogError("⚠️ 共享存储数据损坏，按空集合处理: %v", err)
		return NewSnapshot()
	}
	return snap
}

// encodeNext 按下一个版本号序列化
func encodeNext(snap *Snapshot) ([]byte, error) {
	return Encode(&Snapshot{Version: snap.Version + 1, Rooms: snap.Rooms})
}
