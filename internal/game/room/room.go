package room

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/palemoky/who-spies/internal/apperrors"
)

const (
	IDLength   = 6                                      // 房间号长度
	IDChars    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" // 房间号字符集
	MinPlayers = 3                                      // 开局最少人数
)

// Player 房间中的玩家
type Player struct {
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
	Ready    bool      `json:"ready"`
}

// Ballot 一张选票
type Ballot struct {
	Voter  string    `json:"voter"`
	Target string    `json:"target"`
	CastAt time.Time `json:"cast_at"`
}

// Room 游戏房间，整体序列化到共享存储
type Room struct {
	ID      string    `json:"id"`
	Host    string    `json:"host"`
	Players []*Player `json:"players"` // 按加入顺序
	Phase   Phase     `json:"phase"`

	Spy       string    `json:"spy,omitempty"`
	Location  string    `json:"location,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	Votes           map[string]*Ballot `json:"votes"` // 选票 ID -> 选票
	Winner          Winner             `json:"winner,omitempty"`
	EndReason       EndReason          `json:"end_reason,omitempty"`
	Eliminated      string             `json:"eliminated,omitempty"`
	LocationGuesses map[string]string  `json:"location_guesses"`
	SpyForfeited    bool               `json:"spy_forfeited,omitempty"`

	Round     int       `json:"round"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New 创建空房间
func New(id string, now time.Time) *Room {
	return &Room{
		ID:              id,
		Players:         make([]*Player, 0, MinPlayers),
		Phase:           PhaseLobby,
		Votes:           make(map[string]*Ballot),
		LocationGuesses: make(map[string]string),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NewID 生成随机房间号
func NewID(rng *rand.Rand) string {
	code := make([]byte, IDLength)
	for i := range code {
		code[i] = IDChars[rng.IntN(len(IDChars))]
	}
	return string(code)
}

// Normalize 补齐反序列化后可能为 nil 的字段
func (r *Room) Normalize() {
	if r.Players == nil {
		r.Players = make([]*Player, 0, MinPlayers)
	}
	if r.Votes == nil {
		r.Votes = make(map[string]*Ballot)
	}
	if r.LocationGuesses == nil {
		r.LocationGuesses = make(map[string]string)
	}
	if r.Phase == "" {
		r.Phase = PhaseLobby
	}
}

// Touch 记录最近一次修改时间
func (r *Room) Touch(now time.Time) {
	r.UpdatedAt = now
}

// Player 按名字查找玩家
func (r *Room) Player(name string) (*Player, bool) {
	for _, p := range r.Players {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// HasPlayer 玩家是否在房间中
func (r *Room) HasPlayer(name string) bool {
	_, ok := r.Player(name)
	return ok
}

// PlayerNames 按加入顺序返回玩家名
func (r *Room) PlayerNames() []string {
	return lo.Map(r.Players, func(p *Player, _ int) string { return p.Name })
}

// ReadyCount 已准备的玩家数
func (r *Room) ReadyCount() int {
	return lo.CountBy(r.Players, func(p *Player) bool { return p.Ready })
}

// AllReady 人数足够且全部准备
func (r *Room) AllReady() bool {
	return len(r.Players) >= MinPlayers && r.ReadyCount() == len(r.Players)
}

// IsEmpty 房间是否没有玩家
func (r *Room) IsEmpty() bool {
	return len(r.Players) == 0
}

// AddPlayer 加入房间；同名玩家会被覆盖（保留原加入位置）
func (r *Room) AddPlayer(name string, asHost bool, now time.Time) {
	r.Normalize()
	player := &Player{Name: name, JoinedAt: now}
	if idx := slices.IndexFunc(r.Players, func(p *Player) bool { return p.Name == name }); idx >= 0 {
		r.Players[idx] = player
	} else {
		r.Players = append(r.Players, player)
	}
	if asHost || r.Host == "" {
		r.Host = name
	}
}

// ToggleReady 切换准备状态
func (r *Room) ToggleReady(name string) (bool, error) {
	p, ok := r.Player(name)
	if !ok {
		return false, apperrors.ErrPlayerNotFound
	}
	p.Ready = !p.Ready
	return p.Ready, nil
}

// RemovePlayer 移除玩家及其选票和猜测，返回移除后房间是否为空。
// 卧底在进行中的一局离开时本局判平民胜（forfeit）。
func (r *Room) RemovePlayer(name string, now time.Time) (bool, error) {
	r.Normalize()
	idx := slices.IndexFunc(r.Players, func(p *Player) bool { return p.Name == name })
	if idx < 0 {
		return r.IsEmpty(), apperrors.ErrPlayerNotFound
	}
	r.Players = slices.Delete(r.Players, idx, idx+1)

	for id, b := range r.Votes {
		if b.Voter == name || b.Target == name {
			delete(r.Votes, id)
		}
	}
	delete(r.LocationGuesses, name)

	if r.IsEmpty() {
		return true, nil
	}

	if r.Host == name {
		r.Host = r.Players[0].Name
	}

	if r.Spy == name {
		r.Spy = ""
		if r.Phase.InRound() {
			r.SpyForfeited = true
			r.finish(WinnerNonSpies, EndReasonForfeit, now)
			return false, nil
		}
	}

	if r.Phase == PhaseVoting {
		r.resolveVotes(now)
	}
	return false, nil
}
