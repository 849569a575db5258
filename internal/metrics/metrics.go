package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueMetrics exposes counters and histograms for queue operations.
type QueueMetrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	waiting    *prometheus.GaugeVec
}

func NewQueueMetrics(reg prometheus.Registerer) *QueueMetrics {
	m := &QueueMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "queue",
			Name:      "operations_total",
			Help:      "Queue operations by name and outcome",
		}, []string{"operation", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "queue",
			Name:      "operation_duration_seconds",
			Help:      "Latency of queue operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		waiting: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clinic",
			Subsystem: "queue",
			Name:      "waiting_patients",
			Help:      "Patients in WAITING state per queue",
		}, []string{"queue_id"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operations, m.latency, m.waiting)
	return m
}

func (m *QueueMetrics) ObserveOperation(operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.latency.WithLabelValues(operation).Observe(seconds)
}

func (m *QueueMetrics) SetWaiting(queueID uint, count int64) {
	if m == nil {
		return
	}
	m.waiting.WithLabelValues(strconv.FormatUint(uint64(queueID), 10)).Set(float64(count))
}
