package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/alumni-connect-api/pkg/mailer"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	fanoutTotal     prometheus.Counter
	fanoutRecipient prometheus.Counter
	fanoutFailures  prometheus.Counter
	statusWriteBack *prometheus.CounterVec
	emailDropped    *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	fanoutTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_fanout_total",
		Help: "Notification fan-outs persisted",
	})

	fanoutRecipient := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_fanout_recipients_total",
		Help: "Notifications persisted across all fan-outs",
	})

	fanoutFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_fanout_failures_total",
		Help: "Notification fan-outs that could not be persisted",
	})

	statusWriteBack := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_status_writeback_total",
		Help: "Derived session status write-backs by outcome",
	}, []string{"result"})

	emailDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "email_dropped_total",
		Help: "Outbound emails dropped by the per-recipient rate limit",
	}, []string{"kind"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, fanoutTotal, fanoutRecipient, fanoutFailures, statusWriteBack, emailDropped, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		fanoutTotal:     fanoutTotal,
		fanoutRecipient: fanoutRecipient,
		fanoutFailures:  fanoutFailures,
		statusWriteBack: statusWriteBack,
		emailDropped:    emailDropped,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordNotificationFanout counts a persisted fan-out and its recipients.
func (m *MetricsService) RecordNotificationFanout(recipients int) {
	if m == nil {
		return
	}
	m.fanoutTotal.Inc()
	m.fanoutRecipient.Add(float64(recipients))
}

// RecordNotificationFailure counts a fan-out that was dropped.
func (m *MetricsService) RecordNotificationFailure() {
	if m == nil {
		return
	}
	m.fanoutFailures.Inc()
}

// RecordStatusWriteBack counts a write-back outcome.
func (m *MetricsService) RecordStatusWriteBack(result string) {
	if m == nil {
		return
	}
	m.statusWriteBack.WithLabelValues(result).Inc()
}

// RecordEmailDropped counts a rate-limited email. Its signature fits mailer.WithDropHook.
func (m *MetricsService) RecordEmailDropped(msg mailer.Message) {
	if m == nil {
		return
	}
	m.emailDropped.WithLabelValues(string(msg.Kind)).Inc()
}
