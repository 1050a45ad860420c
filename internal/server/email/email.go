// Package email delivers account notifications. The Sink interface is the
// seam the lifecycle service depends on; SES and a logging no-op implement
// it, selected at wiring time.
package email

import "context"

// Sink delivers one HTML message to one recipient.
type Sink interface {
	Send(ctx context.Context, emailAddress, htmlContent string) error
}
