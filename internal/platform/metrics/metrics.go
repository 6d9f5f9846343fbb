// Package metrics は Prometheus のメトリクスを定義します。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "personnel"

// Metrics は HTTP と異動処理のメトリクスをまとめます。
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	TransfersCreated    prometheus.Counter
	StatusTransitions   *prometheus.CounterVec
	ForcedTransitions   prometheus.Counter
	EmployeesDeleted    prometheus.Counter
	CascadedTransfers   prometheus.Counter
	ConsistencyFailures *prometheus.CounterVec
}

// New は reg にメトリクスを登録します。reg が nil なら新しいレジストリを作ります。
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "route"}),
		TransfersCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_created_total",
			Help:      "Total transfer requests created",
		}),
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_status_transitions_total",
			Help:      "Transfer status changes by source and target status",
		}, []string{"from", "to"}),
		ForcedTransitions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_forced_transitions_total",
			Help:      "Status changes applied outside the transition table",
		}),
		EmployeesDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "employees_deleted_total",
			Help:      "Total employees deleted",
		}),
		CascadedTransfers: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_cascade_deleted_total",
			Help:      "Transfers removed together with their employee",
		}),
		ConsistencyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consistency_failures_total",
			Help:      "Compound updates rolled back by operation",
		}, []string{"operation"}),
	}
}

// TransferCreated は異動申請の作成を記録します。
func (m *Metrics) TransferCreated() {
	m.TransfersCreated.Inc()
}

// TransferStatusChanged は状態遷移を記録します。
func (m *Metrics) TransferStatusChanged(from, to string, forced bool) {
	m.StatusTransitions.WithLabelValues(from, to).Inc()
	if forced {
		m.ForcedTransitions.Inc()
	}
}

// EmployeeDeleted は社員削除と連鎖削除された異動の件数を記録します。
func (m *Metrics) EmployeeDeleted(removedTransfers int) {
	m.EmployeesDeleted.Inc()
	m.CascadedTransfers.Add(float64(removedTransfers))
}

// ConsistencyFailure はロールバックされた複合操作を記録します。
func (m *Metrics) ConsistencyFailure(operation string) {
	m.ConsistencyFailures.WithLabelValues(operation).Inc()
}

// ObserveHTTP は HTTP リクエスト 1 件を記録します。route はパスパターンです。
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler は /metrics 用のハンドラーを返します。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
