package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// 站内信指标
	MessagesSent       prometheus.Counter
	MessagesRead       prometheus.Counter
	ThreadsMarkedRead  prometheus.Counter
	UnreadCacheHits    prometheus.Counter
	UnreadCacheMisses  prometheus.Counter
	InboxPagesServed   prometheus.Counter

	// 房源指标
	ListingsCreated prometheus.Counter
	ListingsDeleted prometheus.Counter
	ImagesUploaded  prometheus.Counter

	// 用户指标
	UsersRegistered prometheus.Counter
	UsersActive     prometheus.Gauge

	// 系统指标
	SystemUptime        prometheus.Gauge
	DatabaseConnections prometheus.Gauge
	MemoryUsage         prometheus.Gauge

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter

	// 限流指标
	RateLimitBlocks *prometheus.CounterVec
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		// HTTP 请求指标
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "renthub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "renthub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "renthub_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint"},
		),

		HTTPResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "renthub_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint"},
		),

		// 站内信指标
		MessagesSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "renthub_messages_sent_total",
				Help: "Total number of messages sent",
			},
		),

		MessagesRead: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "renthub_messages_read_total",
				Help: "Total number of messages marked as read",
			},
		),

		ThreadsMarkedRead: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "renthub_threads_marked_read_total",
				Help: "Total number of bulk thread read operations",
			},
		),

		UnreadCacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "renthub_unread_cache_hits_total",
				Help: "Total number of unread badge cache hits",
			},
		),

		UnreadCacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "renthub_unread_cache_misses_total",
				Help: "Total number of unread badge cache misses",
			},
		),

		InboxPagesServed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "renthub_inbox_pages_served_total",
				Help: "Total number of inbox pages served",
			},
		),

		// 房源指标
		ListingsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "renthub_listings_created_total",
				Help: "Total number of listings created",
			},
		),

		ListingsDeleted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "renthub_listings_deleted_total",
				Help: "Total number of listings deleted",
			},
		),

		ImagesUploaded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "renthub_listing_images_uploaded_total",
				Help: "Total number of listing images uploaded",
			},
		),

		// 用户指标
		UsersRegistered: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "renthub_users_registered_total",
				Help: "Total number of users registered",
			},
		),

		UsersActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "renthub_users_active",
				Help: "Number of active users",
			},
		),

		// 系统指标
		SystemUptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "renthub_system_uptime_seconds",
				Help: "System uptime in seconds",
			},
		),

		DatabaseConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "renthub_database_connections",
				Help: "Number of database connections",
			},
		),

		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "renthub_memory_usage_bytes",
				Help: "Memory usage in bytes",
			},
		),

		// 错误指标
		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "renthub_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "renthub_panics_total",
				Help: "Total number of panics",
			},
		),

		// 限流指标
		RateLimitBlocks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "renthub_rate_limit_blocks_total",
				Help: "Total number of rate limit blocks",
			},
			[]string{"type", "key"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration, requestSize, responseSize int64) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	m.HTTPRequestSize.WithLabelValues(method, endpoint).Observe(float64(requestSize))
	m.HTTPResponseSize.WithLabelValues(method, endpoint).Observe(float64(responseSize))
}

// RecordMessageSent 记录站内信发送
func (m *Metrics) RecordMessageSent() {
	m.MessagesSent.Inc()
}

// RecordMessageRead 记录站内信阅读
func (m *Metrics) RecordMessageRead() {
	m.MessagesRead.Inc()
}

// RecordThreadMarkedRead 记录会话批量已读
func (m *Metrics) RecordThreadMarkedRead() {
	m.ThreadsMarkedRead.Inc()
}

// RecordUnreadCacheHit 记录未读角标缓存命中
func (m *Metrics) RecordUnreadCacheHit() {
	m.UnreadCacheHits.Inc()
}

// RecordUnreadCacheMiss 记录未读角标缓存未命中
func (m *Metrics) RecordUnreadCacheMiss() {
	m.UnreadCacheMisses.Inc()
}

// RecordInboxPageServed 记录收件箱分页请求
func (m *Metrics) RecordInboxPageServed() {
	m.InboxPagesServed.Inc()
}

// RecordListingCreated 记录房源创建
func (m *Metrics) RecordListingCreated() {
	m.ListingsCreated.Inc()
}

// RecordListingDeleted 记录房源删除
func (m *Metrics) RecordListingDeleted() {
	m.ListingsDeleted.Inc()
}

// RecordImageUploaded 记录图片上传
func (m *Metrics) RecordImageUploaded() {
	m.ImagesUploaded.Inc()
}

// RecordUserRegistered 记录用户注册
func (m *Metrics) RecordUserRegistered() {
	m.UsersRegistered.Inc()
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// RecordRateLimitBlock 记录限流阻止
func (m *Metrics) RecordRateLimitBlock(limitType, key string) {
	m.RateLimitBlocks.WithLabelValues(limitType, key).Inc()
}

// UpdateUsersActive 更新活跃用户数
func (m *Metrics) UpdateUsersActive(count int) {
	m.UsersActive.Set(float64(count))
}

// UpdateSystemUptime 更新系统运行时间
func (m *Metrics) UpdateSystemUptime(uptime time.Duration) {
	m.SystemUptime.Set(uptime.Seconds())
}

// UpdateDatabaseConnections 更新数据库连接数
func (m *Metrics) UpdateDatabaseConnections(count int) {
	m.DatabaseConnections.Set(float64(count))
}

// UpdateMemoryUsage 更新内存使用量
func (m *Metrics) UpdateMemoryUsage(bytes int64) {
	m.MemoryUsage.Set(float64(bytes))
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
