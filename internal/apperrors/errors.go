package apperrors

import (
	"errors"

	"github.com/palemoky/who-spies/internal/protocol"
)

// Kind 错误分类
type Kind int

const (
	KindUnknown           Kind = iota
	KindNotFound               // 房间或玩家不存在
	KindInvalidTransition      // 当前状态不允许该操作
	KindStoreFailure           // 存储读写失败
)

// GameError 游戏错误（房间和会话共享）
type GameError struct {
	Code    int
	Kind    Kind
	Message string
	Err     error
}

func (e *GameError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *GameError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使包装后的副本与预定义错误相等
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	return ok && t.Code == e.Code
}

func newError(code int, kind Kind) *GameError {
	return &GameError{Code: code, Kind: kind, Message: protocol.MessageFor(code)}
}

// 预定义错误
var (
	ErrRoomNotFound   = newError(protocol.ErrCodeRoomNotFound, KindNotFound)
	ErrPlayerNotFound = newError(protocol.ErrCodeNotInRoom, KindNotFound)

	ErrNameTaken        = newError(protocol.ErrCodeNameTaken, KindInvalidTransition)
	ErrGameStarted      = newError(protocol.ErrCodeGameStarted, KindInvalidTransition)
	ErrNotHost          = newError(protocol.ErrCodeNotHost, KindInvalidTransition)
	ErrGameNotStart     = newError(protocol.ErrCodeGameNotStart, KindInvalidTransition)
	ErrNotEnoughPlayers = newError(protocol.ErrCodeNotEnoughPlayers, KindInvalidTransition)
	ErrNotAllReady      = newError(protocol.ErrCodeNotAllReady, KindInvalidTransition)
	ErrNotVoting        = newError(protocol.ErrCodeNotVoting, KindInvalidTransition)
	ErrSelfVote         = newError(protocol.ErrCodeSelfVote, KindInvalidTransition)
	ErrNotSpy           = newError(protocol.ErrCodeNotSpy, KindInvalidTransition)
	ErrGameNotEnded     = newError(protocol.ErrCodeGameNotEnded, KindInvalidTransition)

	ErrStoreFailure = newError(protocol.ErrCodeStoreFailure, KindStoreFailure)
)

// StoreFailure 将存储层错误包装为可恢复的 StoreFailure
func StoreFailure(err error) error {
	if err == nil {
		return nil
	}
	var ge *GameError
	if errors.As(err, &ge) && ge.Kind == KindStoreFailure {
		return err
	}
	return &GameError{
		Code:    protocol.ErrCodeStoreFailure,
		Kind:    KindStoreFailure,
		Message: protocol.MessageFor(protocol.ErrCodeStoreFailure),
		Err:     err,
	}
}

// KindOf 返回错误分类，非 GameError 返回 KindUnknown
func KindOf(err error) Kind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// CodeOf 返回错误码，非 GameError 返回 ErrCodeUnknown
func CodeOf(err error) int {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return protocol.ErrCodeUnknown
}

func IsNotFound(err error) bool          { return KindOf(err) == KindNotFound }
func IsInvalidTransition(err error) bool { return KindOf(err) == KindInvalidTransition }
func IsStoreFailure(err error) bool      { return KindOf(err) == KindStoreFailure }
