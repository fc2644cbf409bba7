package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics("whospies", reg)

	m.ObserveTransaction("join", ResultOK, 2*time.Millisecond)
	m.ObserveTransaction("join", ResultOK, 3*time.Millisecond)
	m.ObserveTransaction("join", ResultNotFound, time.Millisecond)
	m.IncConflicts()
	m.IncRoundsStarted()
	m.IncRoundsEnded("spy", "timeout")
	m.SetLiveRooms(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transactions.WithLabelValues("join", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transactions.WithLabelValues("join", ResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Conflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoundsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoundsEnded.WithLabelValues("spy", "timeout")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.LiveRooms))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "whospies_room_transactions_total")
	assert.Contains(t, names, "whospies_room_transaction_seconds")
	assert.Contains(t, names, "whospies_live_rooms")
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransaction("join", ResultOK, time.Millisecond)
		m.IncConflicts()
		m.IncRoundsStarted()
		m.IncRoundsEnded("spy", "guess")
		m.SetLiveRooms(1)
	})
}

func TestNewMetrics_WithoutRegistry(t *testing.T) {
	t.Parallel()

	// Two unregistered sets never collide
	a := NewMetrics("whospies", nil)
	b := NewMetrics("whospies", nil)
	a.IncConflicts()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Conflicts))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Conflicts))
}
