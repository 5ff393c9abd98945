package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kampuskuevent"

// Registry is the Prometheus registry served on /metrics.
var Registry = prometheus.NewRegistry()

// AppInfo exposes build information as labels (value is always 1).
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date", "db_driver"},
)

// Registration outcomes.
const (
	OutcomeAdmitted      = "admitted"
	OutcomeQuotaFull     = "quota_full"
	OutcomeEventNotFound = "event_not_found"
	OutcomeInvalid       = "invalid"
	OutcomeError         = "error"
)

// RegistrationsTotal counts participant registration attempts by outcome.
var RegistrationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Participant registration attempts by outcome",
	},
	[]string{"outcome"},
)

// AdminAuthFailures counts rejected admin credentials.
var AdminAuthFailures = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_auth_failures_total",
		Help:      "Admin requests rejected by the authorization gate",
	},
	[]string{"reason"},
)

var initOnce sync.Once

// Init registers runtime collectors and sets build information. Safe to
// call more than once.
func Init(version, commit, buildDate, driver string) {
	initOnce.Do(func() {
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
	AppInfo.Reset()
	AppInfo.WithLabelValues(version, commit, buildDate, driver).Set(1)
}

// RecordRegistration increments the registration counter for outcome.
func RecordRegistration(outcome string) {
	RegistrationsTotal.WithLabelValues(outcome).Inc()
}
