// AngelaMos | 2026
// metrics.go

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "etudiantesolidaire"

// Reservations counts booking outcomes.
// Label result: created, conflict, invalid, cancelled, status_changed.
var Reservations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rdv_reservations_total",
		Help:      "Booking operations by outcome.",
	},
	[]string{"result"},
)

// EmailsSent counts notification attempts.
// Labels kind: user, admin, verification. result: sent, failed, dropped.
var EmailsSent = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_total",
		Help:      "Notification emails by kind and result.",
	},
	[]string{"kind", "result"},
)

var MailQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Jobs waiting in the notification queue.",
	},
)

// LoginAttempts counts login outcomes.
// Label result: success, failure, blocked.
var LoginAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Login attempts by outcome.",
	},
	[]string{"result"},
)

var EventsPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Domain events published, by subject and result.",
	},
	[]string{"subject", "result"},
)

func Handler() http.Handler {
	return promhttp.Handler()
}
