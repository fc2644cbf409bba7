package room

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTally_OrderIndependent(t *testing.T) {
	t.Parallel()

	ballots := []Ballot{
		{Voter: "B", Target: "A"},
		{Voter: "C", Target: "A"},
		{Voter: "A", Target: "B"},
		{Voter: "D", Target: "B"},
		{Voter: "E", Target: "C"},
	}

	var first TallyResult
	for shift := range ballots {
		votes := make(map[string]*Ballot, len(ballots))
		for i := range ballots {
			b := ballots[(i+shift)%len(ballots)]
			votes[fmt.Sprintf("%d-%s", i, b.Voter)] = &b
		}
		got := Tally(votes)
		if shift == 0 {
			first = got
			continue
		}
		assert.Equal(t, first, got, "shift %d", shift)
	}

	assert.Equal(t, []string{"A", "B"}, first.Leaders)
	assert.Equal(t, 2, first.Max)
	assert.Equal(t, map[string]int{"A": 2, "B": 2, "C": 1}, first.Counts)
}

func TestTally_Unique(t *testing.T) {
	t.Parallel()

	votes := map[string]*Ballot{
		"1": {Voter: "B", Target: "A"},
		"2": {Voter: "C", Target: "A"},
		"3": {Voter: "A", Target: "C"},
	}
	got := Tally(votes)

	leader, ok := got.Unique()
	assert.True(t, ok)
	assert.Equal(t, "A", leader)
}

func TestTally_Empty(t *testing.T) {
	t.Parallel()

	got := Tally(nil)
	_, ok := got.Unique()
	assert.False(t, ok)
	assert.Zero(t, got.Max)
	assert.Empty(t, got.Leaders)
}
