package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/netbar/billing-system/internal/api/metrics"
	"github.com/netbar/billing-system/internal/core/ports"
)

// publish sends a domain event. Broker failures never fail the request.
func publish(ctx context.Context, pub ports.EventPublisher, log zerolog.Logger, subject string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, subject, payload); err != nil {
		metrics.EventsPublishErrorsTotal.WithLabelValues(subject).Inc()
		log.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}
