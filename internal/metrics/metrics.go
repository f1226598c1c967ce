// Package metrics provides Prometheus instrumentation for the moderation
// bot. It exposes counters for message throughput, violations, punishment
// outcomes, and platform API failures.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesChecked counts group messages that entered the moderation
	// pipeline (private messages are never counted).
	MessagesChecked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "modbot_messages_checked_total",
		Help: "Total number of group messages run through moderation",
	})

	// ViolationsTotal counts policy violations, labeled by category:
	// "forbidden word" or "forbidden link".
	ViolationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_violations_total",
		Help: "Total number of policy violations detected",
	}, []string{"category"})

	// PunishmentsTotal counts punishment attempts, labeled by kind
	// (ban, kick, mute, tempmute, tempban) and outcome ("applied", "failed").
	PunishmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_punishments_total",
		Help: "Total number of punishments attempted",
	}, []string{"kind", "outcome"})

	// PlatformErrors counts failed Telegram API calls, labeled by operation.
	PlatformErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_platform_errors_total",
		Help: "Total number of failed platform API calls",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(
		MessagesChecked,
		ViolationsTotal,
		PunishmentsTotal,
		PlatformErrors,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
