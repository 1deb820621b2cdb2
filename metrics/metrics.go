package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemoteOperationsTotal 远程操作总数
	// Labels: op (analyze/search/refresh/merge), outcome (success/transport/server/validation)
	RemoteOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncwave_remote_operations_total",
			Help: "Total number of remote operations by kind and outcome",
		},
		[]string{"op", "outcome"},
	)

	// RemoteOperationDuration 远程操作耗时（秒）。合并和分析可能持续数分钟。
	RemoteOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "syncwave_remote_operation_duration_seconds",
			Help:    "Remote operation duration in seconds by kind",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"op"},
	)

	// WorkflowEventsTotal 工作流事件计数
	// Labels: event, result (applied/ignored/rejected)
	WorkflowEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncwave_workflow_events_total",
			Help: "Total number of workflow events by name and result",
		},
		[]string{"event", "result"},
	)

	// PreviewsStarted 试听启动次数
	PreviewsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "syncwave_previews_started_total",
			Help: "Total number of audio previews started",
		},
	)
)

// RecordRemote 记录一次远程操作
func RecordRemote(op, outcome string, durationSeconds float64) {
	RemoteOperationsTotal.WithLabelValues(op, outcome).Inc()
	RemoteOperationDuration.WithLabelValues(op).Observe(durationSeconds)
}

// RecordRejected 记录一次未发出的远程操作（本地校验失败或同类请求进行中）
func RecordRejected(op string) {
	RemoteOperationsTotal.WithLabelValues(op, "validation").Inc()
}

// RecordEvent 记录一次工作流事件
func RecordEvent(event, result string) {
	WorkflowEventsTotal.WithLabelValues(event, result).Inc()
}

// RecordPreviewStarted 记录试听开始
func RecordPreviewStarted() {
	PreviewsStarted.Inc()
}
