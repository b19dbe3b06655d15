package database

import (
	"context"

	"go.mongodb.org/mongo-driver/event"

	"github.com/Dakudbilla/DevConnect/metrics"
)

// newCommandMonitor reports every driver command's latency to Prometheus.
func newCommandMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Succeeded: func(_ context.Context, e *event.CommandSucceededEvent) {
			metrics.DatabaseCommandLatency.WithLabelValues(e.CommandName, "success").Observe(e.Duration.Seconds())
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			metrics.DatabaseCommandLatency.WithLabelValues(e.CommandName, "failure").Observe(e.Duration.Seconds())
		},
	}
}
