package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/palemoky/who-spies/internal/apperrors"
	"github.com/palemoky/who-spies/internal/game/room"
	"github.com/palemoky/who-spies/internal/logger"
	"github.com/palemoky/who-spies/internal/metrics"
	"github.com/palemoky/who-spies/internal/server/storage"
)

// errNothingToSave 事务函数返回它表示无需写入，commit 直接结束
var errNothingToSave = errors.New("session: nothing to save")

// roomFunc 在房间上执行的修改，返回错误时不写入
type roomFunc func(snap *storage.Snapshot, rm *room.Room, now time.Time) error

// roundEvent 一次提交中发生的对局事件
type roundEvent struct {
	started bool
	ended   bool
	winner  room.Winner
	reason  room.EndReason
}

// update 持有房间锁执行 加载→超时判定→修改→保存，版本冲突时重试
func (r *Repository) update(ctx context.Context, op, id string, fn roomFunc) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.OpTimeout)
	defer cancel()

	start := time.Now()
	release, err := r.locks.acquire(ctx, id)
	if err != nil {
		err = apperrors.StoreFailure(fmt.Errorf("等待房间 %s 的锁: %w", id, err))
		r.observe(op, start, err)
		return err
	}
	defer release()

	var event roundEvent
	err = r.transact(ctx, op, func(snap *storage.Snapshot, now time.Time) error {
		rm, ok := snap.Rooms[id]
		if !ok {
			return apperrors.ErrRoomNotFound
		}
		round, wasEnded := rm.Round, rm.Phase == room.PhaseEnded

		expired := rm.Expire(now, r.opts.RoundDuration)
		if err := fn(snap, rm, now); err != nil {
			return err
		}
		if !expired && op == opView {
			// 其他进程已写回超时
			return errNothingToSave
		}

		event = roundEvent{
			started: rm.Round > round,
			ended:   !wasEnded && rm.Phase == room.PhaseEnded,
			winner:  rm.Winner,
			reason:  rm.EndReason,
		}
		if _, alive := snap.Rooms[id]; alive {
			rm.Touch(now)
		}
		return nil
	})
	if errors.Is(err, errNothingToSave) {
		err = nil
	}
	r.observe(op, start, err)
	if err != nil {
		return err
	}

	r.record(id, event)
	return nil
}

// record 提交成功后记录对局事件
func (r *Repository) record(id string, event roundEvent) {
	if event.started {
		r.opts.Metrics.IncRoundsStarted()
		logger.LogInfo("🎲 房间 %s 开局", id)
	}
	if event.ended {
		r.opts.Metrics.IncRoundsEnded(string(event.winner), string(event.reason))
		logger.LogInfo("🏁 房间 %s 本局结束: winner=%s reason=%s", id, event.winner, event.reason)
	}
}

// commit 不持有房间锁的整体事务（创建、清理）
func (r *Repository) commit(ctx context.Context, op string, fn func(snap *storage.Snapshot, now time.Time) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.OpTimeout)
	defer cancel()

	start := time.Now()
	err := r.transact(ctx, op, fn)
	if errors.Is(err, errNothingToSave) {
		r.observe(op, start, nil)
		return err
	}
	r.observe(op, start, err)
	return err
}

// transact 加载快照执行 fn 后保存，冲突时重新加载并重跑 fn
func (r *Repository) transact(ctx context.Context, op string, fn func(snap *storage.Snapshot, now time.Time) error) error {
	for attempt := 1; ; attempt++ {
		snap, err := r.store.Load(ctx)
		if err != nil {
			return apperrors.StoreFailure(fmt.Errorf("%s: 加载失败: %w", op, err))
		}

		if err := fn(snap, r.opts.Clock()); err != nil {
			return err
		}

		err = r.store.Save(ctx, snap)
		if err == nil {
			r.opts.Metrics.SetLiveRooms(len(snap.Rooms))
			return nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return apperrors.StoreFailure(fmt.Errorf("%s: 保存失败: %w", op, err))
		}

		r.opts.Metrics.IncConflicts()
		if attempt >= r.opts.MaxRetries {
			logger.LogError("⚠️ %s 连续 %d 次版本冲突，放弃", op, attempt)
			return apperrors.StoreFailure(fmt.Errorf("%s: 重试 %d 次后仍冲突: %w", op, attempt, err))
		}
		logger.LogDebug("🔁 %s 版本冲突，第 %d 次重试", op, attempt)
	}
}

func (r *Repository) observe(op string, start time.Time, err error) {
	r.opts.Metrics.ObserveTransaction(op, resultOf(err), time.Since(start))
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case apperrors.IsNotFound(err):
		return metrics.ResultNotFound
	case apperrors.IsStoreFailure(err):
		return metrics.ResultStoreFailure
	default:
		return metrics.ResultInvalid
	}
}
