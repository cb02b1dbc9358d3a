package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "admin_api"

// Login results used as label values.
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginLocked             = "locked"
	LoginDisabled           = "disabled"
	LoginError              = "error"
)

// Recorder is what the auth flows and limiters report to.
type Recorder interface {
	LoginAttempt(result string)
	Lockout()
	Refresh(result string)
	RateLimited(scope string)
	LocksCleared(n int64)
}

type Metrics struct {
	loginAttemptsTotal  *prometheus.CounterVec
	lockoutActivations  prometheus.Counter
	refreshTotal        *prometheus.CounterVec
	rateLimitRejections *prometheus.CounterVec
	locksClearedTotal   prometheus.Counter
	gatherer            prometheus.Gatherer
}

// New registers the collectors on reg. A nil reg uses a private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		loginAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "login_attempts_total",
				Help:      "Login attempts partitioned by result.",
			},
			[]string{"result"},
		),
		lockoutActivations: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "lockout_activations_total",
				Help:      "Accounts locked after reaching the failed login threshold.",
			},
		),
		refreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "refresh_total",
				Help:      "Refresh token exchanges partitioned by result.",
			},
			[]string{"result"},
		),
		rateLimitRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "rate_limit_rejections_total",
				Help:      "Requests rejected by a rate limiter, by scope.",
			},
			[]string{"scope"},
		),
		locksClearedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "expired_locks_cleared_total",
				Help:      "Expired account locks cleared by the cleanup job.",
			},
		),
		gatherer: reg,
	}
}

func (m *Metrics) LoginAttempt(result string) {
	m.loginAttemptsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Lockout() {
	m.lockoutActivations.Inc()
}

func (m *Metrics) Refresh(result string) {
	m.refreshTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RateLimited(scope string) {
	m.rateLimitRejections.WithLabelValues(scope).Inc()
}

func (m *Metrics) LocksCleared(n int64) {
	if n > 0 {
		m.locksClearedTotal.Add(float64(n))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) LoginAttempt(string) {}
func (Nop) Lockout()            {}
func (Nop) Refresh(string)      {}
func (Nop) RateLimited(string)  {}
func (Nop) LocksCleared(int64)  {}
