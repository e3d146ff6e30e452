package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters for the webhook pipeline. Registered on the default registry so
// promhttp.Handler picks them up without extra wiring.
var (
	// DeliveriesReceived counts inbound webhook POSTs by outcome
	// (accepted, bad_signature, malformed).
	DeliveriesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "Inbound webhook deliveries by outcome",
	}, []string{"outcome"})

	// EventsProcessed counts pipeline events by classified kind.
	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Messaging events processed by kind",
	}, []string{"kind"})

	// OutboundSends counts Send API calls by result (ok, error).
	OutboundSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_sends_total",
		Help: "Outbound Send API calls by result",
	}, []string{"result"})
)

// Handler exposes the prometheus scrape endpoint as a gin handler
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
