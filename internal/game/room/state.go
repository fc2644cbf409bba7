package room

// Phase 房间阶段
type Phase string

const (
	PhaseLobby  Phase = "lobby"  // 等待中
	PhaseActive Phase = "active" // 游戏进行中
	PhaseVoting Phase = "voting" // 投票中（属于进行中的子状态）
	PhaseEnded  Phase = "ended"  // 本局结束
)

// InRound 是否处于进行中的一局（含投票）
func (p Phase) InRound() bool {
	return p == PhaseActive || p == PhaseVoting
}

// Winner 获胜方
type Winner string

const (
	WinnerNone     Winner = ""
	WinnerSpy      Winner = "spy"
	WinnerNonSpies Winner = "non_spies"
)

// EndReason 本局结束原因
type EndReason string

const (
	EndReasonNone    EndReason = ""
	EndReasonVote    EndReason = "vote"    // 投票淘汰
	EndReasonTimeout EndReason = "timeout" // 超时，卧底获胜
	EndReasonGuess   EndReason = "guess"   // 卧底猜测地点
	EndReasonForfeit EndReason = "forfeit" // 卧底中途离开
)
