package catalog

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestPickSpy_Deterministic(t *testing.T) {
	t.Parallel()

	players := []string{"alice", "bob", "carol", "dave"}

	first, err := PickSpy(seeded(7), players)
	require.NoError(t, err)
	second, err := PickSpy(seeded(7), players)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, players, first)
}

func TestPickSpy_CoversEveryPlayer(t *testing.T) {
	t.Parallel()

	players := []string{"alice", "bob", "carol"}
	rng := seeded(42)
	seen := make(map[string]bool)
	for range 200 {
		spy, err := PickSpy(rng, players)
		require.NoError(t, err)
		seen[spy] = true
	}
	assert.Len(t, seen, len(players))
}

func TestPickSpy_Empty(t *testing.T) {
	t.Parallel()

	_, err := PickSpy(seeded(1), nil)
	assert.ErrorIs(t, err, ErrNoPlayers)
}

func TestPickLocation(t *testing.T) {
	t.Parallel()

	loc, err := PickLocation(seeded(3), Default)
	require.NoError(t, err)
	assert.True(t, Contains(Default, loc))

	_, err = PickLocation(seeded(3), []string{})
	assert.ErrorIs(t, err, ErrNoLocations)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Default, Resolve(nil))
	assert.Equal(t, Default, Resolve([]string{"", ""}))
	assert.Equal(t, []string{"Beach", "Bank"}, Resolve([]string{"Beach", "", "Bank", "Beach"}))
}
