package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/who-spies/internal/apperrors"
	"github.com/palemoky/who-spies/internal/game/catalog"
)

func TestStart_NotEnoughPlayers(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob")
	err := r.Start(seeded(1), testNow, catalog.Default)

	assert.ErrorIs(t, err, apperrors.ErrNotEnoughPlayers)
	assert.Equal(t, PhaseLobby, r.Phase)
	assert.Empty(t, r.Spy)
	assert.Empty(t, r.Location)
	assert.True(t, r.StartedAt.IsZero())
	assert.Zero(t, r.Round)
}

func TestStart_AssignsSpyAndLocation(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob", "carol", "dave")
	require.NoError(t, r.Start(seeded(9), testNow, catalog.Default))

	assert.Equal(t, PhaseActive, r.Phase)
	assert.True(t, r.HasPlayer(r.Spy))
	assert.True(t, catalog.Contains(catalog.Default, r.Location))
	assert.Equal(t, testNow, r.StartedAt)
	assert.Equal(t, 1, r.Round)
	assert.Empty(t, r.Votes)
	assert.Equal(t, WinnerNone, r.Winner)
}

func TestStart_DoesNotRequireReady(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob", "carol")
	require.Zero(t, r.ReadyCount())
	assert.NoError(t, r.Start(seeded(2), testNow, catalog.Default))
}

func TestStart_DeterministicWithSeed(t *testing.T) {
	t.Parallel()

	a := newTestRoom(t, "alice", "bob", "carol", "dave", "erin")
	b := newTestRoom(t, "alice", "bob", "carol", "dave", "erin")
	require.NoError(t, a.Start(seeded(11), testNow, catalog.Default))
	require.NoError(t, b.Start(seeded(11), testNow, catalog.Default))

	assert.Equal(t, a.Spy, b.Spy)
	assert.Equal(t, a.Location, b.Location)
}

func TestStart_RejectedWhileRunning(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob", "carol")
	require.NoError(t, r.Start(seeded(1), testNow, catalog.Default))
	spy := r.Spy

	assert.ErrorIs(t, r.Start(seeded(2), testNow, catalog.Default), apperrors.ErrGameStarted)
	assert.Equal(t, spy, r.Spy)
}

func TestStart_EmptyCatalog(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob", "carol")
	err := r.Start(seeded(1), testNow, nil)
	assert.ErrorIs(t, err, catalog.ErrNoLocations)
	assert.Equal(t, PhaseLobby, r.Phase)
}

func TestStartVoting(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob", "carol")
	assert.ErrorIs(t, r.StartVoting(), apperrors.ErrGameNotStart)

	require.NoError(t, r.Start(seeded(1), testNow, catalog.Default))
	require.NoError(t, r.StartVoting())
	assert.Equal(t, PhaseVoting, r.Phase)

	voter, target := r.Players[0].Name, r.Players[1].Name
	require.NoError(t, r.CastVote("b1", voter, target, testNow))
	require.Len(t, r.Votes, 1)

	// Re-entering voting clears ballots
	require.NoError(t, r.StartVoting())
	assert.Empty(t, r.Votes)
}

func TestCastVote_Validation(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob", "carol")
	assert.ErrorIs(t, r.CastVote("b0", "alice", "bob", testNow), apperrors.ErrNotVoting)

	r = newVotingRoom(t, "carol", "alice", "bob", "carol")
	assert.ErrorIs(t, r.CastVote("b1", "alice", "alice", testNow), apperrors.ErrSelfVote)
	assert.ErrorIs(t, r.CastVote("b2", "zed", "alice", testNow), apperrors.ErrPlayerNotFound)
	assert.ErrorIs(t, r.CastVote("b3", "alice", "zed", testNow), apperrors.ErrPlayerNotFound)
	assert.Empty(t, r.Votes)
}

func TestCastVote_ReplacesLiveBallot(t *testing.T) {
	t.Parallel()

	r := newVotingRoom(t, "carol", "alice", "bob", "carol", "dave")
	require.NoError(t, r.CastVote("b1", "alice", "bob", testNow))
	require.NoError(t, r.CastVote("b2", "alice", "carol", testNow))

	require.Len(t, r.Votes, 1)
	id, b := r.BallotOf("alice")
	assert.Equal(t, "b1", id, "ballot id is kept on replacement")
	assert.Equal(t, "carol", b.Target)
}

func TestCastVote_TieKeepsRoundGoing(t *testing.T) {
	t.Parallel()

	// A:2, B:2, C:1 with five players
	r := newVotingRoom(t, "erin", "A", "B", "C", "D", "erin")
	require.NoError(t, r.CastVote("1", "B", "A", testNow))
	require.NoError(t, r.CastVote("2", "D", "A", testNow))
	require.NoError(t, r.CastVote("3", "A", "B", testNow))
	require.NoError(t, r.CastVote("4", "C", "B", testNow))
	require.NoError(t, r.CastVote("5", "erin", "C", testNow))

	assert.Equal(t, PhaseActive, r.Phase)
	assert.Empty(t, r.Votes)
	assert.Empty(t, r.Eliminated)
	assert.Equal(t, WinnerNone, r.Winner)
}

func TestCastVote_UniquePlurality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		spy    string
		winner Winner
	}{
		{name: "eliminated player is the spy", spy: "A", winner: WinnerNonSpies},
		{name: "eliminated player is innocent", spy: "C", winner: WinnerSpy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// A:3, B:1, C:1 with five voters
			r := newVotingRoom(t, tt.spy, "A", "B", "C", "D", "E")
			require.NoError(t, r.CastVote("1", "B", "A", testNow))
			require.NoError(t, r.CastVote("2", "C", "A", testNow))
			require.NoError(t, r.CastVote("3", "D", "A", testNow))
			require.NoError(t, r.CastVote("4", "A", "B", testNow))
			require.NoError(t, r.CastVote("5", "E", "C", testNow))

			assert.Equal(t, PhaseEnded, r.Phase)
			assert.Equal(t, "A", r.Eliminated)
			assert.Equal(t, tt.winner, r.Winner)
			assert.Equal(t, EndReasonVote, r.EndReason)
			assert.Equal(t, testNow, r.EndedAt)
		})
	}
}

func TestGuessLocation(t *testing.T) {
	t.Parallel()

	t.Run("wrong guess loses immediately", func(t *testing.T) {
		t.Parallel()
		r := newTestRoom(t, "alice", "bob", "carol")
		require.NoError(t, r.Start(seeded(5), testNow, []string{"Beach", "Bank"}))

		wrong := "Bank"
		if r.Location == "Bank" {
			wrong = "Beach"
		}
		correct, err := r.GuessLocation(r.Spy, wrong, testNow.Add(10*time.Second))
		require.NoError(t, err)

		assert.False(t, correct)
		assert.Equal(t, PhaseEnded, r.Phase)
		assert.Equal(t, WinnerNonSpies, r.Winner)
		assert.Equal(t, EndReasonGuess, r.EndReason)
		assert.Equal(t, wrong, r.LocationGuesses[r.Spy])
		assert.Empty(t, r.Eliminated)
	})

	t.Run("correct guess wins", func(t *testing.T) {
		t.Parallel()
		r := newVotingRoom(t, "bob", "alice", "bob", "carol")
		correct, err := r.GuessLocation("bob", "Beach", testNow)
		require.NoError(t, err)
		assert.True(t, correct)
		assert.Equal(t, WinnerSpy, r.Winner)
	})

	t.Run("only the spy may guess", func(t *testing.T) {
		t.Parallel()
		r := newVotingRoom(t, "bob", "alice", "bob", "carol")
		_, err := r.GuessLocation("alice", "Beach", testNow)
		assert.ErrorIs(t, err, apperrors.ErrNotSpy)
		_, err = r.GuessLocation("zed", "Beach", testNow)
		assert.ErrorIs(t, err, apperrors.ErrPlayerNotFound)
		assert.Equal(t, PhaseVoting, r.Phase)
	})

	t.Run("no round in progress", func(t *testing.T) {
		t.Parallel()
		r := newTestRoom(t, "alice", "bob", "carol")
		_, err := r.GuessLocation("alice", "Beach", testNow)
		assert.ErrorIs(t, err, apperrors.ErrGameNotStart)
	})
}

func TestExpire(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob", "carol")
	assert.False(t, r.Expire(testNow.Add(time.Hour), 300*time.Second), "lobby never expires")

	require.NoError(t, r.Start(seeded(3), testNow, catalog.Default))
	assert.False(t, r.Expire(testNow.Add(299*time.Second), 300*time.Second))
	assert.Equal(t, PhaseActive, r.Phase)

	require.NoError(t, r.StartVoting())
	assert.True(t, r.Expire(testNow.Add(300*time.Second), 300*time.Second))
	assert.Equal(t, PhaseEnded, r.Phase)
	assert.Equal(t, WinnerSpy, r.Winner)
	assert.Equal(t, EndReasonTimeout, r.EndReason)
	assert.Equal(t, testNow.Add(300*time.Second), r.EndedAt)

	assert.False(t, r.Expire(testNow.Add(time.Hour), 300*time.Second), "already ended")
}

func TestReset(t *testing.T) {
	t.Parallel()

	r := newVotingRoom(t, "bob", "alice", "bob", "carol")
	for _, name := range r.PlayerNames() {
		_, _ = r.ToggleReady(name)
	}
	assert.ErrorIs(t, r.Reset(), apperrors.ErrGameNotEnded)

	_, err := r.GuessLocation("bob", "Bank", testNow)
	require.NoError(t, err)
	require.NoError(t, r.Reset())

	assert.Equal(t, PhaseLobby, r.Phase)
	assert.Empty(t, r.Spy)
	assert.Empty(t, r.Location)
	assert.True(t, r.StartedAt.IsZero())
	assert.True(t, r.EndedAt.IsZero())
	assert.Empty(t, r.Votes)
	assert.Empty(t, r.LocationGuesses)
	assert.Equal(t, WinnerNone, r.Winner)
	assert.Equal(t, EndReasonNone, r.EndReason)
	assert.Empty(t, r.Eliminated)
	assert.Zero(t, r.ReadyCount())

	assert.Equal(t, []string{"alice", "bob", "carol"}, r.PlayerNames())
	assert.Equal(t, "alice", r.Host)
	assert.Equal(t, 1, r.Round, "round counter survives reset")
}

func TestWinnerSetOnlyWhenEnded(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob", "carol")
	check := func() {
		assert.Equal(t, r.Phase == PhaseEnded, r.Winner != WinnerNone, "phase=%s winner=%q", r.Phase, r.Winner)
	}

	check()
	require.NoError(t, r.Start(seeded(4), testNow, catalog.Default))
	check()
	require.NoError(t, r.StartVoting())
	check()
	r.Expire(testNow.Add(time.Hour), time.Minute)
	check()
	require.NoError(t, r.Reset())
	check()
}
