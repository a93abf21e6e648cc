// Package metrics defines the bot's prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Routes an inbound message can take.
const (
	RouteIgnored      = "ignored"
	RouteRegistration = "registration"
	RouteGreeting     = "greeting"
	RouteFlow         = "flow"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	messages      *prometheus.CounterVec
	tickets       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	sendFailures  prometheus.Counter
}

var (
	globalOnce sync.Once
	globalInst *Metrics
)

// Global returns the collectors registered on the default prometheus registry.
func Global() *Metrics {
	globalOnce.Do(func() {
		globalInst = New(prometheus.DefaultRegisterer)
	})
	return globalInst
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resolve",
			Subsystem: "bot",
			Name:      "messages_total",
			Help:      "Inbound messages, labeled by the route that handled them",
		}, []string{"route"}),
		tickets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resolve",
			Subsystem: "bot",
			Name:      "tickets_created_total",
			Help:      "Tickets persisted by the finalizer, labeled by main category",
		}, []string{"category"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resolve",
			Subsystem: "bot",
			Name:      "notifications_total",
			Help:      "Downstream notifications, labeled by target and result",
		}, []string{"target", "result"}),
		sendFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "resolve",
			Subsystem: "bot",
			Name:      "outbound_send_failures_total",
			Help:      "Prompts that could not be delivered to the user",
		}),
	}
}

func (m *Metrics) Message(route string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(route).Inc()
}

func (m *Metrics) TicketCreated(category string) {
	if m == nil {
		return
	}
	m.tickets.WithLabelValues(category).Inc()
}

// Notification records one downstream effect; result is "sent", "skipped" or "failed".
func (m *Metrics) Notification(target, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(target, result).Inc()
}

func (m *Metrics) SendFailure() {
	if m == nil {
		return
	}
	m.sendFailures.Inc()
}
