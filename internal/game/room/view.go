package room

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"github.com/samber/lo"
)

// 视角角色
const (
	RoleSpy      = "spy"
	RoleCivilian = "civilian"
)

// ViewOptions 计算视图所需的配置
type ViewOptions struct {
	RoundDuration time.Duration
	Anonymous     bool     // 匿名投票时不显示投票人
	Locations     []string // 可猜测的地点列表
}

// PlayerView 视图中的玩家
type PlayerView struct {
	Name     string    `json:"name"`
	Ready    bool      `json:"ready"`
	IsHost   bool      `json:"is_host"`
	HasVoted bool      `json:"has_voted"`
	JoinedAt time.Time `json:"joined_at"`
}

// BallotView 视图中的选票
type BallotView struct {
	Voter  string `json:"voter,omitempty"`
	Target string `json:"target"`
}

// View 房间快照，包含计算字段（剩余时间、计票结果）
type View struct {
	ID           string       `json:"id"`
	Host         string       `json:"host"`
	Phase        Phase        `json:"phase"`
	VotingActive bool         `json:"voting_active"`
	Players      []PlayerView `json:"players"`
	PlayerCount  int          `json:"player_count"`
	ReadyCount   int          `json:"ready_count"`
	CanStart     bool         `json:"can_start"`

	Viewer   string `json:"viewer,omitempty"`
	Role     string `json:"role,omitempty"`
	Spy      string `json:"spy,omitempty"`
	Location string `json:"location,omitempty"`

	StartedAt        *time.Time `json:"started_at,omitempty"`
	RoundSeconds     int        `json:"round_seconds"`
	RemainingSeconds int        `json:"remaining_seconds"`
	Clock            string     `json:"clock"`

	Anonymous   bool         `json:"anonymous"`
	Ballots     []BallotView `json:"ballots"`
	BallotsCast int          `json:"ballots_cast"`
	Tally       TallyResult  `json:"tally"`

	Winner          Winner            `json:"winner,omitempty"`
	EndReason       EndReason         `json:"end_reason,omitempty"`
	Eliminated      string            `json:"eliminated,omitempty"`
	LocationGuesses map[string]string `json:"location_guesses,omitempty"`
	SpyForfeited    bool              `json:"spy_forfeited,omitempty"`
	Locations       []string          `json:"locations,omitempty"`
	Round           int               `json:"round"`
}

// Summary 房间列表条目
type Summary struct {
	ID          string    `json:"id"`
	Host        string    `json:"host"`
	Phase       Phase     `json:"phase"`
	PlayerCount int       `json:"player_count"`
	ReadyCount  int       `json:"ready_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// View 计算完整快照（含卧底和地点，调用方按玩家视角裁剪）
func (r *Room) View(now time.Time, opts ViewOptions) *View {
	r.Normalize()
	remaining := r.remainingAt(now, opts.RoundDuration)

	v := &View{
		ID:               r.ID,
		Host:             r.Host,
		Phase:            r.Phase,
		VotingActive:     r.Phase == PhaseVoting,
		PlayerCount:      len(r.Players),
		ReadyCount:       r.ReadyCount(),
		CanStart:         r.Phase == PhaseLobby && r.AllReady(),
		Spy:              r.Spy,
		Location:         r.Location,
		RoundSeconds:     int(opts.RoundDuration / time.Second),
		RemainingSeconds: int(remaining / time.Second),
		Clock:            FormatClock(remaining),
		Anonymous:        opts.Anonymous,
		BallotsCast:      len(r.Votes),
		Tally:            Tally(r.Votes),
		Winner:           r.Winner,
		EndReason:        r.EndReason,
		Eliminated:       r.Eliminated,
		LocationGuesses:  maps.Clone(r.LocationGuesses),
		SpyForfeited:     r.SpyForfeited,
		Locations:        opts.Locations,
		Round:            r.Round,
	}
	if !r.StartedAt.IsZero() {
		started := r.StartedAt
		v.StartedAt = &started
	}

	voted := make(map[string]bool, len(r.Votes))
	v.Ballots = make([]BallotView, 0, len(r.Votes))
	for _, b := range r.Votes {
		voted[b.Voter] = true
		bv := BallotView{Target: b.Target}
		if !opts.Anonymous {
			bv.Voter = b.Voter
		}
		v.Ballots = append(v.Ballots, bv)
	}
	slices.SortFunc(v.Ballots, func(a, b BallotView) int {
		return cmp.Or(cmp.Compare(a.Target, b.Target), cmp.Compare(a.Voter, b.Voter))
	})

	v.Players = lo.Map(r.Players, func(p *Player, _ int) PlayerView {
		return PlayerView{
			Name:     p.Name,
			Ready:    p.Ready,
			IsHost:   p.Name == r.Host,
			HasVoted: voted[p.Name],
			JoinedAt: p.JoinedAt,
		}
	})

	return v
}

// ForPlayer 返回某位玩家能看到的快照：本局结束前卧底看不到地点，其他人看不到卧底
func (v *View) ForPlayer(name string) *View {
	out := *v
	out.Viewer = name
	isPlayer := lo.ContainsBy(v.Players, func(p PlayerView) bool { return p.Name == name })

	switch {
	case isPlayer && v.Spy != "" && name == v.Spy:
		out.Role = RoleSpy
	case isPlayer && v.Spy != "":
		out.Role = RoleCivilian
	}

	if v.Phase == PhaseEnded {
		return &out
	}
	if out.Role != RoleCivilian {
		out.Location = ""
	}
	if out.Role != RoleSpy {
		out.Spy = ""
	}
	return &out
}

// Summarize 生成房间列表条目
func (r *Room) Summarize() Summary {
	return Summary{
		ID:          r.ID,
		Host:        r.Host,
		Phase:       r.Phase,
		PlayerCount: len(r.Players),
		ReadyCount:  r.ReadyCount(),
		CreatedAt:   r.CreatedAt,
	}
}
