package metrics

import (
	"os"
	"runtime"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Counter Metrics = &EmptyMetrics{}

var once sync.Once

// SetPrometheus switches Counter to a Prometheus backed implementation
// registered on the default registry. Later calls are no-ops.
func SetPrometheus() {
	once.Do(func() { Counter = NewPrometheus(prometheus.DefaultRegisterer) })
}

type Metrics interface {
	AddBindAttempt()
	AddAccept()
	AddAcceptFailed(timeout bool)
	// AddHandshake records one handshake outcome, "ok" on success or the
	// failure kind.
	AddHandshake(result string)
	AddHandshakeDuration(seconds float64)
	SetConnectionActive(active bool)
}

type EmptyMetrics struct{}

func (m *EmptyMetrics) AddBindAttempt()              {}
func (m *EmptyMetrics) AddAccept()                   {}
func (m *EmptyMetrics) AddAcceptFailed(bool)         {}
func (m *EmptyMetrics) AddHandshake(string)          {}
func (m *EmptyMetrics) AddHandshakeDuration(float64) {}
func (m *EmptyMetrics) SetConnectionActive(bool)     {}

type Prometheus struct {
	TotalBindAttempt  prometheus.Counter
	TotalAccept       prometheus.Counter
	TotalAcceptFailed *prometheus.CounterVec
	TotalHandshake    *prometheus.CounterVec
	HandshakeDuration prometheus.Histogram
	CurrentConnection prometheus.Gauge
}

func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	hostname, _ := os.Hostname()
	labels := prometheus.Labels{
		"hostname": hostname,
		"os":       runtime.GOOS,
		"arch":     runtime.GOARCH,
	}

	factory := promauto.With(reg)

	return &Prometheus{
		TotalBindAttempt: factory.NewCounter(prometheus.CounterOpts{
			Name:        "wsserver_bind_attempts_total",
			Help:        "The total number of ports tried while binding",
			ConstLabels: labels,
		}),
		TotalAccept: factory.NewCounter(prometheus.CounterOpts{
			Name:        "wsserver_accept_total",
			Help:        "The total number of accepted connections",
			ConstLabels: labels,
		}),
		TotalAcceptFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "wsserver_accept_failed_total",
			Help:        "The total number of failed accepts",
			ConstLabels: labels,
		}, []string{"timeout"}),
		TotalHandshake: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "wsserver_handshake_total",
			Help:        "The total number of handshakes by result",
			ConstLabels: labels,
		}, []string{"result"}),
		HandshakeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "wsserver_handshake_duration_seconds",
			Help:        "The duration of the opening handshake",
			Buckets:     []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: labels,
		}),
		CurrentConnection: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "wsserver_connection_current",
			Help:        "Whether an upgraded connection is currently held",
			ConstLabels: labels,
		}),
	}
}

func (p *Prometheus) AddBindAttempt() {
	p.TotalBindAttempt.Inc()
}

func (p *Prometheus) AddAccept() {
	p.TotalAccept.Inc()
}

func (p *Prometheus) AddAcceptFailed(timeout bool) {
	if timeout {
		p.TotalAcceptFailed.WithLabelValues("true").Inc()
	} else {
		p.TotalAcceptFailed.WithLabelValues("false").Inc()
	}
}

func (p *Prometheus) AddHandshake(result string) {
	p.TotalHandshake.WithLabelValues(result).Inc()
}

func (p *Prometheus) AddHandshakeDuration(seconds float64) {
	p.HandshakeDuration.Observe(seconds)
}

func (p *Prometheus) SetConnectionActive(active bool) {
	if active {
		p.CurrentConnection.Set(1)
	} else {
		p.CurrentConnection.Set(0)
	}
}
