package room

import (
	"fmt"
	"time"
)

// Remaining 剩余时间，不小于 0
func Remaining(startedAt, now time.Time, roundDuration time.Duration) time.Duration {
	return max(0, roundDuration-now.Sub(startedAt))
}

// FormatClock 格式化为 MM:SS
func FormatClock(remaining time.Duration) string {
	secs := max(0, int(remaining/time.Second))
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// remainingAt 计算视图中的剩余时间：大厅显示整局时长，结束后冻结在结束时刻
func (r *Room) remainingAt(now time.Time, roundDuration time.Duration) time.Duration {
	switch {
	case r.Phase == PhaseLobby || r.StartedAt.IsZero():
		return roundDuration
	case r.Phase == PhaseEnded && !r.EndedAt.IsZero():
		return Remaining(r.StartedAt, r.EndedAt, roundDuration)
	default:
		return Remaining(r.StartedAt, now, roundDuration)
	}
}
