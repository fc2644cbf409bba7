// Package session 房间仓库：在共享存储上以事务方式执行房间操作。
// 同一进程内按房间号串行，多进程之间依靠存储的版本比较并重试。
package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/who-spies/internal/apperrors"
	"github.com/palemoky/who-spies/internal/game/catalog"
	"github.com/palemoky/who-spies/internal/game/room"
	"github.com/palemoky/who-spies/internal/logger"
	"github.com/palemoky/who-spies/internal/metrics"
	"github.com/palemoky/who-spies/internal/server/storage"
)

const (
	defaultRoundDuration = 600 * time.Second
	defaultMaxRetries    = 5
	defaultOpTimeout     = 5 * time.Second

	// emptyRoomGrace 创建后仍无人加入的房间保留时长
	emptyRoomGrace = time.Minute
)

// 操作名，用于日志和指标
const (
	opCreate  = "create"
	opJoin    = "join"
	opLeave   = "leave"
	opReady   = "ready"
	opStart   = "start"
	opVoting  = "voting"
	opVote    = "vote"
	opGuess   = "guess"
	opView    = "view"
	opReset   = "reset"
	opList    = "list"
	opCleanup = "cleanup"
)

// Options 仓库配置
type Options struct {
	RoundDuration time.Duration
	Locations     []string
	Anonymous     bool
	MaxRetries    int
	OpTimeout     time.Duration

	Clock   func() time.Time
	Rand    *rand.Rand
	Metrics *metrics.Metrics
}

// Repository 房间仓库
type Repository struct {
	store     storage.Store
	opts      Options
	locations []string
	locks     *roomLocks

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRepository 创建仓库，未设置的选项使用默认值
func NewRepository(store storage.Store, opts Options) *Repository {
	if opts.RoundDuration <= 0 {
		opts.RoundDuration = defaultRoundDuration
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = defaultOpTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Repository{
		store:     store,
		opts:      opts,
		locations: catalog.Resolve(opts.Locations),
		locks:     newRoomLocks(),
		rng:       rng,
	}
}

// Locations 当前使用的地点列表
func (r *Repository) Locations() []string {
	return slices.Clone(r.locations)
}

// RoundDuration 每局时长
func (r *Repository) RoundDuration() time.Duration {
	return r.opts.RoundDuration
}

// CreateRoom 创建空房间，返回房间号
func (r *Repository) CreateRoom(ctx context.Context) (string, error) {
	var id string
	err := r.commit(ctx, opCreate, func(snap *storage.Snapshot, now time.Time) error {
		id = r.newRoomID(snap)
		snap.Rooms[id] = room.New(id, now)
		return nil
	})
	if err != nil {
		return "", err
	}
	logger.LogInfo("🏠 房间 %s 已创建", id)
	return id, nil
}

// JoinRoom 加入房间。同名玩家会被覆盖，名字唯一性由调用方保证。
func (r *Repository) JoinRoom(ctx context.Context, id, name string, asHost bool) error {
	err := r.update(ctx, opJoin, id, func(_ *storage.Snapshot, rm *room.Room, now time.Time) error {
		rm.AddPlayer(name, asHost, now)
		return nil
	})
	if err == nil {
		logger.LogInfo("👤 玩家 %s 加入房间 %s", name, id)
	}
	return err
}

// LeaveRoom 离开房间，最后一名玩家离开时删除房间
func (r *Repository) LeaveRoom(ctx context.Context, id, name string) error {
	deleted := false
	err := r.update(ctx, opLeave, id, func(snap *storage.Snapshot, rm *room.Room, now time.Time) error {
		empty, err := rm.RemovePlayer(name, now)
		if err != nil {
			return err
		}
		deleted = empty
		if empty {
			delete(snap.Rooms, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.LogInfo("👋 玩家 %s 离开房间 %s", name, id)
	if deleted {
		logger.LogInfo("🗑️ 房间 %s 已无玩家，已删除", id)
	}
	return nil
}

// ToggleReady 切换准备状态
func (r *Repository) ToggleReady(ctx context.Context, id, name string) error {
	return r.update(ctx, opReady, id, func(_ *storage.Snapshot, rm *room.Room, _ time.Time) error {
		_, err := rm.ToggleReady(name)
		return err
	})
}

// StartGame 开局
func (r *Repository) StartGame(ctx context.Context, id string) error {
	return r.update(ctx, opStart, id, func(_ *storage.Snapshot, rm *room.Room, now time.Time) error {
		r.rngMu.Lock()
		defer r.rngMu.Unlock()
		return rm.Start(r.rng, now, r.locations)
	})
}

// StartVoting 发起投票
func (r *Repository) StartVoting(ctx context.Context, id string) error {
	return r.update(ctx, opVoting, id, func(_ *storage.Snapshot, rm *room.Room, _ time.Time) error {
		return rm.StartVoting()
	})
}

// CastVote 投票，同一玩家再次投票会替换原选票
func (r *Repository) CastVote(ctx context.Context, id, voter, target string) error {
	ballotID := uuid.NewString()
	return r.update(ctx, opVote, id, func(_ *storage.Snapshot, rm *room.Room, now time.Time) error {
		return rm.CastVote(ballotID, voter, target, now)
	})
}

// SubmitLocationGuess 卧底猜测地点
func (r *Repository) SubmitLocationGuess(ctx context.Context, id, player, guess string) error {
	guess = strings.TrimSpace(guess)
	return r.update(ctx, opGuess, id, func(_ *storage.Snapshot, rm *room.Room, now time.Time) error {
		_, err := rm.GuessLocation(player, guess, now)
		return err
	})
}

// ResetRoom 结束后重开（房主权限由调用方检查）
func (r *Repository) ResetRoom(ctx context.Context, id string) error {
	return r.update(ctx, opReset, id, func(_ *storage.Snapshot, rm *room.Room, _ time.Time) error {
		return rm.Reset()
	})
}

// GetRoomView 读取房间快照。超时在读取时判定，触发时写回存储；
// 写回失败只记录日志，仍返回计算出的快照。
func (r *Repository) GetRoomView(ctx context.Context, id string) (*room.View, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.OpTimeout)
	defer cancel()

	start := time.Now()
	snap, err := r.store.Load(ctx)
	if err != nil {
		err = apperrors.StoreFailure(err)
		r.observe(opView, start, err)
		return nil, err
	}
	rm, ok := snap.Rooms[id]
	if !ok {
		r.observe(opView, start, apperrors.ErrRoomNotFound)
		return nil, apperrors.ErrRoomNotFound
	}

	now := r.opts.Clock()
	if rm.Expire(now, r.opts.RoundDuration) {
		if err := r.persistExpiry(ctx, id); err != nil {
			logger.LogError("⏰ 房间 %s 超时结果写回失败: %v", id, err)
		}
	}
	r.observe(opView, start, nil)
	return rm.View(now, r.viewOptions()), nil
}

// persistExpiry 在房间锁内重新执行一次空更新，由 update 负责判定并保存超时
func (r *Repository) persistExpiry(ctx context.Context, id string) error {
	return r.update(ctx, opView, id, func(*storage.Snapshot, *room.Room, time.Time) error {
		return nil
	})
}

// ListRooms 按创建时间列出所有房间
func (r *Repository) ListRooms(ctx context.Context) ([]room.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.OpTimeout)
	defer cancel()

	start := time.Now()
	snap, err := r.store.Load(ctx)
	if err != nil {
		err = apperrors.StoreFailure(err)
		r.observe(opList, start, err)
		return nil, err
	}
	r.opts.Metrics.SetLiveRooms(len(snap.Rooms))

	now := r.opts.Clock()
	summaries := make([]room.Summary, 0, len(snap.Rooms))
	for _, rm := range snap.Rooms {
		rm.Expire(now, r.opts.RoundDuration)
		summaries = append(summaries, rm.Summarize())
	}
	slices.SortFunc(summaries, func(a, b room.Summary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	r.observe(opList, start, nil)
	return summaries, nil
}

// CleanupIdle 删除超过 maxAge 未活动的大厅或已结束房间，以及创建后无人加入的空房间。
// 进行中的对局不会被清理；已超时的对局在此一并结束并写回。
func (r *Repository) CleanupIdle(ctx context.Context, maxAge time.Duration) (int, error) {
	var (
		removed []string
		expired map[string]roundEvent
	)
	err := r.commit(ctx, opCleanup, func(snap *storage.Snapshot, now time.Time) error {
		removed = removed[:0]
		expired = make(map[string]roundEvent)
		for id, rm := range snap.Rooms {
			if rm.Expire(now, r.opts.RoundDuration) {
				expired[id] = roundEvent{ended: true, winner: rm.Winner, reason: rm.EndReason}
				rm.Touch(now)
			}
			idle := now.Sub(rm.UpdatedAt)
			switch {
			case rm.IsEmpty() && idle >= emptyRoomGrace:
			case !rm.Phase.InRound() && maxAge > 0 && idle >= maxAge:
			default:
				continue
			}
			removed = append(removed, id)
			delete(snap.Rooms, id)
		}
		if len(removed) == 0 && len(expired) == 0 {
			return errNothingToSave
		}
		return nil
	})
	if errors.Is(err, errNothingToSave) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	for id, event := range expired {
		r.record(id, event)
	}
	if len(removed) > 0 {
		slices.Sort(removed)
		logger.LogInfo("🧹 清理了 %d 个空闲房间: %v", len(removed), removed)
	}
	return len(removed), nil
}

func (r *Repository) viewOptions() room.ViewOptions {
	return room.ViewOptions{
		RoundDuration: r.opts.RoundDuration,
		Anonymous:     r.opts.Anonymous,
		Locations:     r.locations,
	}
}

// newRoomID 生成当前快照中未使用的房间号
func (r *Repository) newRoomID(snap *storage.Snapshot) string {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	for {
		id := room.NewID(r.rng)
		if _, exists := snap.Rooms[id]; !exists {
			return id
		}
	}
}

