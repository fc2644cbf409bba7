package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatClock(t *testing.T) {
	t.Parallel()

	round := 300 * time.Second
	tests := []struct {
		elapsed time.Duration
		want    string
	}{
		{elapsed: 0, want: "05:00"},
		{elapsed: 250 * time.Second, want: "00:50"},
		{elapsed: 250*time.Second + 400*time.Millisecond, want: "00:49"},
		{elapsed: 300 * time.Second, want: "00:00"},
		{elapsed: 305 * time.Second, want: "00:00"},
	}

	for _, tt := range tests {
		remaining := Remaining(testNow, testNow.Add(tt.elapsed), round)
		assert.Equal(t, tt.want, FormatClock(remaining), "elapsed %s", tt.elapsed)
		assert.GreaterOrEqual(t, remaining, time.Duration(0))
	}

	assert.Equal(t, "10:00", FormatClock(600*time.Second))
	assert.Equal(t, "00:00", FormatClock(-time.Second))
}

func TestRemainingAt(t *testing.T) {
	t.Parallel()

	round := 300 * time.Second
	r := newTestRoom(t, "alice", "bob", "carol")
	assert.Equal(t, round, r.remainingAt(testNow.Add(time.Hour), round), "lobby shows the full round")

	r = newVotingRoom(t, "bob", "alice", "bob", "carol")
	assert.Equal(t, 200*time.Second, r.remainingAt(testNow.Add(100*time.Second), round))

	_, err := r.GuessLocation("bob", "Beach", testNow.Add(120*time.Second))
	assert.NoError(t, err)
	assert.Equal(t, 180*time.Second, r.remainingAt(testNow.Add(time.Hour), round), "frozen once ended")
}
