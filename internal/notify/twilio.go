package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the slice of the Twilio REST client we use, extracted so
// tests can substitute a fake.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioService implements Service using the Twilio Messages API.
type TwilioService struct {
	api  messageCreator
	from string
}

// Opts holds Twilio configuration.
type Opts struct {
	AccountSID string
	AuthToken  string
	From       string
}

// NewTwilioService creates an SMS sender from account credentials.
func NewTwilioService(opts Opts) (*TwilioService, error) {
	if opts.AccountSID == "" || opts.AuthToken == "" {
		return nil, ErrMissingCredentials
	}
	if opts.From == "" {
		return nil, fmt.Errorf("twilio sender number not configured")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: opts.AccountSID,
		Password: opts.AuthToken,
	})
	slog.Debug("NewTwilioService created", "from", opts.From)
	return &TwilioService{api: client.Api, from: opts.From}, nil
}

// SendSMS sends one text message.
func (s *TwilioService) SendSMS(ctx context.Context, to string, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		slog.Error("TwilioService SendSMS failed", "error", err, "to", to)
		return fmt.Errorf("failed to send SMS to %s: %w", to, err)
	}
	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	slog.Debug("TwilioService SendSMS succeeded", "to", to, "sid", sid)
	return nil
}
