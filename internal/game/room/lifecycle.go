package room

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/palemoky/who-spies/internal/apperrors"
	"github.com/palemoky/who-spies/internal/game/catalog"
)

// Start 开局：随机分配卧底和地点。
// 只检查人数，全员准备由调用方（房主界面）保证。
func (r *Room) Start(rng *rand.Rand, now time.Time, locations []string) error {
	r.Normalize()
	if r.Phase != PhaseLobby {
		return apperrors.ErrGameStarted
	}
	if len(r.Players) < MinPlayers {
		return apperrors.ErrNotEnoughPlayers
	}

	spy, err := catalog.PickSpy(rng, r.PlayerNames())
	if err != nil {
		return fmt.Errorf("分配卧底失败: %w", err)
	}
	location, err := catalog.PickLocation(rng, locations)
	if err != nil {
		return fmt.Errorf("分配地点失败: %w", err)
	}

	r.clearRound()
	r.Spy = spy
	r.Location = location
	r.StartedAt = now
	r.Phase = PhaseActive
	r.Round++
	return nil
}

// StartVoting 进入（或重新进入）投票阶段，任何玩家都可以发起
func (r *Room) StartVoting() error {
	r.Normalize()
	if !r.Phase.InRound() {
		return apperrors.ErrGameNotStart
	}
	r.Phase = PhaseVoting
	clear(r.Votes)
	return nil
}

// CastVote 投票。每名玩家最多一张有效选票，计票前可以改投；
// 票数达到玩家人数时立即计票。
func (r *Room) CastVote(ballotID, voter, target string, now time.Time) error {
	r.Normalize()
	if r.Phase != PhaseVoting {
		return apperrors.ErrNotVoting
	}
	if !r.HasPlayer(voter) || !r.HasPlayer(target) {
		return apperrors.ErrPlayerNotFound
	}
	if voter == target {
		return apperrors.ErrSelfVote
	}

	if id, existing := r.BallotOf(voter); existing != nil {
		r.Votes[id] = &Ballot{Voter: voter, Target: target, CastAt: now}
	} else {
		r.Votes[ballotID] = &Ballot{Voter: voter, Target: target, CastAt: now}
	}

	r.resolveVotes(now)
	return nil
}

// BallotOf 返回玩家当前的有效选票
func (r *Room) BallotOf(voter string) (string, *Ballot) {
	for id, b := range r.Votes {
		if b.Voter == voter {
			return id, b
		}
	}
	return "", nil
}

// resolveVotes 所有人都投票后计票：唯一最高票者出局，平票则回到讨论阶段
func (r *Room) resolveVotes(now time.Time) {
	if r.Phase != PhaseVoting || len(r.Votes) == 0 || len(r.Votes) < len(r.Players) {
		return
	}

	result := Tally(r.Votes)
	eliminated, ok := result.Unique()
	if !ok {
		clear(r.Votes)
		r.Phase = PhaseActive
		return
	}

	r.Eliminated = eliminated
	if eliminated == r.Spy {
		r.finish(WinnerNonSpies, EndReasonVote, now)
	} else {
		r.finish(WinnerSpy, EndReasonVote, now)
	}
}

// GuessLocation 卧底猜测地点：猜中卧底胜，猜错平民胜，没有第二次机会
func (r *Room) GuessLocation(player, guess string, now time.Time) (bool, error) {
	r.Normalize()
	if !r.Phase.InRound() {
		return false, apperrors.ErrGameNotStart
	}
	if !r.HasPlayer(player) {
		return false, apperrors.ErrPlayerNotFound
	}
	if player != r.Spy {
		return false, apperrors.ErrNotSpy
	}

	r.LocationGuesses[player] = guess
	correct := guess == r.Location
	if correct {
		r.finish(WinnerSpy, EndReasonGuess, now)
	} else {
		r.finish(WinnerNonSpies, EndReasonGuess, now)
	}
	return correct, nil
}

// Expire 惰性超时检查：到时仍未分出胜负则卧底获胜。返回是否触发。
func (r *Room) Expire(now time.Time, roundDuration time.Duration) bool {
	if !r.Phase.InRound() || r.StartedAt.IsZero() {
		return false
	}
	if now.Sub(r.StartedAt) < roundDuration {
		return false
	}
	r.finish(WinnerSpy, EndReasonTimeout, r.StartedAt.Add(roundDuration))
	return true
}

// Reset 房主重开：清空本局数据和准备状态，保留玩家和房主
func (r *Room) Reset() error {
	r.Normalize()
	if r.Phase != PhaseEnded {
		return apperrors.ErrGameNotEnded
	}
	r.clearRound()
	r.Spy = ""
	r.Location = ""
	r.StartedAt = time.Time{}
	r.Phase = PhaseLobby
	for _, p := range r.Players {
		p.Ready = false
	}
	return nil
}

func (r *Room) finish(winner Winner, reason EndReason, now time.Time) {
	r.Phase = PhaseEnded
	r.Winner = winner
	r.EndReason = reason
	r.EndedAt = now
}

func (r *Room) clearRound() {
	clear(r.Votes)
	clear(r.LocationGuesses)
	r.Winner = WinnerNone
	r.EndReason = EndReasonNone
	r.Eliminated = ""
	r.SpyForfeited = false
	r.EndedAt = time.Time{}
}
