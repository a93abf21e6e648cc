// Package messaging sends outbound WhatsApp replies through Twilio.
package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

const whatsAppPrefix = "whatsapp:"

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioSender delivers plain-text WhatsApp messages.
type TwilioSender struct {
	api  messageCreator
	from string
	log  *zap.Logger
}

// NewTwilioSender returns a sender. Without credentials messages are only logged,
// which keeps local runs usable without a Twilio account.
func NewTwilioSender(accountSID, authToken, from string, log *zap.Logger) *TwilioSender {
	if log == nil {
		log = zap.NewNop()
	}
	s := &TwilioSender{from: withPrefix(from), log: log}
	if accountSID != "" && authToken != "" {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
		s.api = client.Api
	}
	return s
}

func (s *TwilioSender) Enabled() bool { return s.api != nil }

// SendText sends text to the WhatsApp number to (with or without the "whatsapp:" prefix).
func (s *TwilioSender) SendText(ctx context.Context, to, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.api == nil {
		s.log.Info("twilio not configured, reply dropped", zap.String("to", to), zap.String("text", text))
		return nil
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(withPrefix(to))
	params.SetFrom(s.from)
	params.SetBody(text)
	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", to, err)
	}
	if msg != nil && msg.Sid != nil {
		s.log.Debug("reply sent", zap.String("to", to), zap.String("sid", *msg.Sid))
	}
	return nil
}

func withPrefix(number string) string {
	if number == "" || strings.HasPrefix(number, whatsAppPrefix) {
		return number
	}
	return whatsAppPrefix + number
}
