package session

import (
	"context"

	"github.com/samber/lo"

	"github.com/palemoky/who-spies/internal/apperrors"
	"github.com/palemoky/who-spies/internal/config"
	"github.com/palemoky/who-spies/internal/game/room"
	"github.com/palemoky/who-spies/internal/metrics"
)

// 以下操作在核心操作前附加界面层的规则（昵称唯一、房主权限、全员准备）。
// 检查和执行不在同一事务内，并发时以核心操作的结果为准。

// JoinAsNew 以新玩家身份加入：昵称不能重复，游戏开始后不能加入
func (r *Repository) JoinAsNew(ctx context.Context, id, name string) error {
	v, err := r.GetRoomView(ctx, id)
	if err != nil {
		return err
	}
	if hasPlayer(v, name) {
		return apperrors.ErrNameTaken
	}
	if v.Phase != room.PhaseLobby {
		return apperrors.ErrGameStarted
	}
	return r.JoinRoom(ctx, id, name, false)
}

// StartAsHost 房主开局，需要人数足够且全员准备
func (r *Repository) StartAsHost(ctx context.Context, id, name string) error {
	v, err := r.GetRoomView(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case v.Host != name:
		return apperrors.ErrNotHost
	case v.Phase != room.PhaseLobby:
		return apperrors.ErrGameStarted
	case v.PlayerCount < room.MinPlayers:
		return apperrors.ErrNotEnoughPlayers
	case !v.CanStart:
		return apperrors.ErrNotAllReady
	}
	return r.StartGame(ctx, id)
}

// StartVotingAs 房间内任意玩家发起投票
func (r *Repository) StartVotingAs(ctx context.Context, id, name string) error {
	v, err := r.GetRoomView(ctx, id)
	if err != nil {
		return err
	}
	if !hasPlayer(v, name) {
		return apperrors.ErrPlayerNotFound
	}
	return r.StartVoting(ctx, id)
}

// ResetAsHost 房主重开
func (r *Repository) ResetAsHost(ctx context.Context, id, name string) error {
	v, err := r.GetRoomView(ctx, id)
	if err != nil {
		return err
	}
	if v.Host != name {
		return apperrors.ErrNotHost
	}
	return r.ResetRoom(ctx, id)
}

// OptionsFromConfig 根据配置生成仓库选项
func OptionsFromConfig(cfg *config.Config, m *metrics.Metrics) Options {
	return Options{
		RoundDuration: cfg.Game.RoundDurationTime(),
		Locations:     cfg.Game.Locations,
		Anonymous:     cfg.Game.AnonymousVotes,
		MaxRetries:    cfg.Store.MaxRetries,
		OpTimeout:     cfg.Store.OpTimeoutDuration(),
		Metrics:       m,
	}
}

func hasPlayer(v *room.View, name string) bool {
	return lo.ContainsBy(v.Players, func(p room.PlayerView) bool { return p.Name == name })
}
