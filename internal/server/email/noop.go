package email

import (
	"context"

	"github.com/dkotelnikov/accountd/internal/logging"
)

// NoopSink logs messages instead of sending them. Used in local development
// and tests.
type NoopSink struct {
	logger logging.Logger
}

func NewNoopSink(logger logging.Logger) *NoopSink {
	return &NoopSink{logger: logger.With("module", "noop_email")}
}

func (s *NoopSink) Send(ctx context.Context, emailAddress, htmlContent string) error {
	s.logger.Info(ctx, "would have sent email", "emailAddress", emailAddress, "content", htmlContent)
	return nil
}

var _ Sink = (*NoopSink)(nil)
