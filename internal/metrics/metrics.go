// Package metrics 房间事务与对局的 prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 事务结果标签
const (
	ResultOK           = "ok"
	ResultNotFound     = "not_found"
	ResultInvalid      = "invalid"
	ResultStoreFailure = "store_failure"
)

// Metrics 指标集合。所有方法对 nil 接收者安全，未启用指标时可直接传 nil。
type Metrics struct {
	Transactions  *prometheus.CounterVec
	Conflicts     prometheus.Counter
	TxLatency     *prometheus.HistogramVec
	RoundsStarted prometheus.Counter
	RoundsEnded   *prometheus.CounterVec
	LiveRooms     prometheus.Gauge
}

// NewMetrics 创建指标并注册到 reg；reg 为 nil 时不注册
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_transactions_total",
			Help:      "Room transactions by operation and result",
		}, []string{"op", "result"}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_conflicts_total",
			Help:      "Optimistic save conflicts that triggered a retry",
		}),
		TxLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "room_transaction_seconds",
			Help:      "Room transaction latency including retries",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"op"}),
		RoundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_started_total",
			Help:      "Rounds started",
		}),
		RoundsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_ended_total",
			Help:      "Rounds ended by winner and reason",
		}, []string{"winner", "reason"}),
		LiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_rooms",
			Help:      "Rooms present in the shared store",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Transactions,
			m.Conflicts,
			m.TxLatency,
			m.RoundsStarted,
			m.RoundsEnded,
			m.LiveRooms,
		)
	}
	return m
}

// ObserveTransaction 记录一次事务的结果与耗时
func (m *Metrics) ObserveTransaction(op, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(op, result).Inc()
	m.TxLatency.WithLabelValues(op).Observe(d.Seconds())
}

// IncConflicts 记录一次版本冲突
func (m *Metrics) IncConflicts() {
	if m == nil {
		return
	}
	m.Conflicts.Inc()
}

// IncRoundsStarted 记录开局
func (m *Metrics) IncRoundsStarted() {
	if m == nil {
		return
	}
	m.RoundsStarted.Inc()
}

// IncRoundsEnded 记录一局结束
func (m *Metrics) IncRoundsEnded(winner, reason string) {
	if m == nil {
		return
	}
	m.RoundsEnded.WithLabelValues(winner, reason).Inc()
}

// SetLiveRooms 设置当前房间数
func (m *Metrics) SetLiveRooms(count int) {
	if m == nil {
		return
	}
	m.LiveRooms.Set(float64(count))
}
