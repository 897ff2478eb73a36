// Package metrics exposes Prometheus instrumentation for the game backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	crisisChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xenopark_crisis_checks_total",
		Help: "Crisis trigger checks by outcome",
	}, []string{"outcome"}) // outcome=triggered|quiet|busy

	crisisTriggeredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xenopark_crisis_triggered_total",
		Help: "Crises opened by severity",
	}, []string{"severity"})

	crisisResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xenopark_crisis_resolved_total",
		Help: "Crises resolved by path",
	}, []string{"path"}) // path=manual|timeout

	crisisActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xenopark_crisis_active",
		Help: "Whether a crisis session is currently open (1) or not (0)",
	})

	crisisProbability = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xenopark_crisis_trigger_probability",
		Help: "Trigger probability computed at the last check",
	})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xenopark_notifications_total",
		Help: "Notifications broadcast by level",
	}, []string{"level"})

	savesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xenopark_saves_total",
		Help: "Campaign saves written by kind",
	}, []string{"kind"})

	parkDay = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xenopark_park_day",
		Help: "Current simulated park day",
	})
)

// RecordCrisisCheck counts a trigger check outcome and the probability used.
func RecordCrisisCheck(outcome string, probability float64) {
	crisisChecksTotal.WithLabelValues(outcome).Inc()
	if outcome != "busy" {
		crisisProbability.Set(probability)
	}
}

// RecordCrisisTriggered counts an opened crisis and raises the active gauge.
func RecordCrisisTriggered(severity string) {
	crisisTriggeredTotal.WithLabelValues(severity).Inc()
	crisisActive.Set(1)
}

// RecordCrisisResolved counts a resolution and clears the active gauge.
func RecordCrisisResolved(timedOut bool) {
	path := "manual"
	if timedOut {
		path = "timeout"
	}
	crisisResolvedTotal.WithLabelValues(path).Inc()
	crisisActive.Set(0)
}

// RecordNotification counts a broadcast notification.
func RecordNotification(level string) {
	notificationsTotal.WithLabelValues(level).Inc()
}

// RecordSave counts a written save.
func RecordSave(kind string) {
	savesTotal.WithLabelValues(kind).Inc()
}

// SetParkDay publishes the current simulated day.
func SetParkDay(day int) {
	parkDay.Set(float64(day))
}
