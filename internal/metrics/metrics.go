package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 任务创建数
	tasksCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_created_total",
			Help: "Total number of tasks created",
		},
		[]string{"category"},
	)

	// 生命周期操作数
	taskTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_transitions_total",
			Help: "Total number of task lifecycle operations",
		},
		[]string{"event"}, // assign, start, submit, approve, reject ...
	)

	// 审核操作数
	reviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviews_total",
			Help: "Total number of review decisions",
		},
		[]string{"action", "outcome"}, // approve/reject, APPROVED/ASSIGNED/CANCELLED
	)

	// 乐观锁冲突数
	concurrencyConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "task_concurrency_conflicts_total",
			Help: "Total number of writes rejected by the task version check",
		},
	)

	// 审核通过产生的结算金额
	earningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_earnings_total",
			Help: "Sum of earnings computed on approval",
		},
		[]string{"payable"},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 任务状态分布
	tasksByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tasks_by_status",
			Help: "Number of tasks by status",
		},
		[]string{"status"},
	)
)

var (
	once sync.Once
)

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(tasksCreatedTotal)
	prometheus.MustRegister(taskTransitionsTotal)
	prometheus.MustRegister(reviewsTotal)
	prometheus.MustRegister(concurrencyConflictsTotal)
	prometheus.MustRegister(earningsTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)
	prometheus.MustRegister(tasksByStatus)

	// 注册 Go 运行时指标（只注册一次）
	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordTaskCreated 记录任务创建
func RecordTaskCreated(category string) {
	tasksCreatedTotal.WithLabelValues(category).Inc()
}

// RecordTransition 记录生命周期操作
func RecordTransition(event string) {
	taskTransitionsTotal.WithLabelValues(event).Inc()
}

// RecordReview 记录审核决定
func RecordReview(action, outcome string) {
	reviewsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordConflict 记录乐观锁冲突
func RecordConflict() {
	concurrencyConflictsTotal.Inc()
}

// RecordEarnings 记录结算金额
func RecordEarnings(amount float64, payable bool) {
	label := "true"
	if !payable {
		label = "false"
	}
	earningsTotal.WithLabelValues(label).Add(amount)
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}

// UpdateTasksByStatus 更新任务状态分布指标
func UpdateTasksByStatus(status string, count float64) {
	tasksByStatus.WithLabelValues(status).Set(count)
}
