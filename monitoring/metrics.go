package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets issued, by path (free or paid)",
		},
		[]string{"path"},
	)

	duplicateReplays = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_duplicate_replays_total",
			Help: "Issue requests short-circuited by the idempotency guard",
		},
	)

	overSellRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_oversell_rejections_total",
			Help: "Allocation attempts rejected for insufficient inventory",
		},
	)

	notificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Confirmation email attempts that failed",
		},
	)

	webhookRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_requests_total",
			Help: "Payment provider webhook deliveries, by outcome",
		},
		[]string{"outcome"},
	)
)

func TicketIssued(path string) { ticketsIssued.WithLabelValues(path).Inc() }

func DuplicateReplay() { duplicateReplays.Inc() }

func OverSellRejected() { overSellRejections.Inc() }

func NotificationFailed() { notificationFailures.Inc() }

func WebhookRequest(outcome string) { webhookRequests.WithLabelValues(outcome).Inc() }
