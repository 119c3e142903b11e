// Package notify provides outbound SMS delivery for alerts and health tips.
package notify

import (
	"context"
	"errors"
)

// ErrMissingCredentials indicates the Twilio account settings were not
// configured.
var ErrMissingCredentials = errors.New("twilio credentials not configured")

// Service defines a pluggable SMS delivery abstraction. Delivery is
// best-effort from the dialog's point of view: a failed send is logged by the
// caller and never aborts a turn.
type Service interface {
	// SendSMS sends a text message to a normalized +234... number.
	SendSMS(ctx context.Context, to string, body string) error
}

// Noop discards all messages. Used when no SMS provider is configured and in
// tests.
type Noop struct{}

// SendSMS drops the message.
func (Noop) SendSMS(ctx context.Context, to string, body string) error {
	return nil
}
