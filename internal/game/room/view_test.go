package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_Lobby(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob", "carol")
	for _, name := range r.PlayerNames() {
		_, _ = r.ToggleReady(name)
	}

	v := r.View(testNow, ViewOptions{RoundDuration: 600 * time.Second})
	assert.Equal(t, PhaseLobby, v.Phase)
	assert.Equal(t, 3, v.PlayerCount)
	assert.Equal(t, 3, v.ReadyCount)
	assert.True(t, v.CanStart)
	assert.Equal(t, "10:00", v.Clock)
	assert.Nil(t, v.StartedAt)
	require.Len(t, v.Players, 3)
	assert.True(t, v.Players[0].IsHost)
	assert.Equal(t, "alice", v.Players[0].Name)
}

func TestView_VotingComputedFields(t *testing.T) {
	t.Parallel()

	r := newVotingRoom(t, "carol", "alice", "bob", "carol", "dave")
	require.NoError(t, r.CastVote("1", "alice", "carol", testNow))
	require.NoError(t, r.CastVote("2", "bob", "carol", testNow))

	v := r.View(testNow.Add(250*time.Second), ViewOptions{RoundDuration: 300 * time.Second})
	assert.True(t, v.VotingActive)
	assert.Equal(t, "00:50", v.Clock)
	assert.Equal(t, 50, v.RemainingSeconds)
	assert.Equal(t, 2, v.BallotsCast)
	assert.Equal(t, []string{"carol"}, v.Tally.Leaders)
	assert.Equal(t, []BallotView{{Voter: "alice", Target: "carol"}, {Voter: "bob", Target: "carol"}}, v.Ballots)
	assert.True(t, v.Players[0].HasVoted)
	assert.False(t, v.Players[2].HasVoted)
	assert.False(t, v.CanStart)
}

func TestView_AnonymousHidesVoters(t *testing.T) {
	t.Parallel()

	r := newVotingRoom(t, "carol", "alice", "bob", "carol")
	require.NoError(t, r.CastVote("1", "alice", "carol", testNow))

	v := r.View(testNow, ViewOptions{RoundDuration: time.Minute, Anonymous: true})
	require.Len(t, v.Ballots, 1)
	assert.Empty(t, v.Ballots[0].Voter)
	assert.Equal(t, "carol", v.Ballots[0].Target)
	assert.True(t, v.Players[0].HasVoted)
}

func TestView_ForPlayerRedacts(t *testing.T) {
	t.Parallel()

	r := newVotingRoom(t, "bob", "alice", "bob", "carol")
	full := r.View(testNow, ViewOptions{RoundDuration: time.Minute})

	spyView := full.ForPlayer("bob")
	assert.Equal(t, RoleSpy, spyView.Role)
	assert.Equal(t, "bob", spyView.Spy)
	assert.Empty(t, spyView.Location)

	civView := full.ForPlayer("alice")
	assert.Equal(t, RoleCivilian, civView.Role)
	assert.Empty(t, civView.Spy)
	assert.Equal(t, "Beach", civView.Location)

	observer := full.ForPlayer("stranger")
	assert.Empty(t, observer.Role)
	assert.Empty(t, observer.Spy)
	assert.Empty(t, observer.Location)

	// Original snapshot is untouched
	assert.Equal(t, "bob", full.Spy)
	assert.Equal(t, "Beach", full.Location)
}

func TestView_ForPlayerRevealsWhenEnded(t *testing.T) {
	t.Parallel()

	r := newVotingRoom(t, "bob", "alice", "bob", "carol")
	_, err := r.GuessLocation("bob", "Bank", testNow)
	require.NoError(t, err)

	v := r.View(testNow, ViewOptions{RoundDuration: time.Minute}).ForPlayer("alice")
	assert.Equal(t, "bob", v.Spy)
	assert.Equal(t, "Beach", v.Location)
	assert.Equal(t, WinnerNonSpies, v.Winner)
	assert.Equal(t, map[string]string{"bob": "Bank"}, v.LocationGuesses)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob")
	s := r.Summarize()
	assert.Equal(t, "ABC123", s.ID)
	assert.Equal(t, "alice", s.Host)
	assert.Equal(t, 2, s.PlayerCount)
	assert.Equal(t, PhaseLobby, s.Phase)
}
