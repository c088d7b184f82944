// Package mail sends messages through the Gmail API.
package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"gopkg.in/gomail.v2"

	"github.com/ayyoubmarroun/pykemen/internal/config"
	apperrors "github.com/ayyoubmarroun/pykemen/internal/errors"
	"github.com/ayyoubmarroun/pykemen/internal/infrastructure"
)

// userID addresses the authenticated account
const userID = "me"

// Sender sends mail as the authenticated user
type Sender struct {
	service *gmail.Service
	from    string
	logger  *slog.Logger
}

// NewSender creates the Gmail service with opts and wraps it
func NewSender(ctx context.Context, cfg config.MailConfig, logger *slog.Logger, opts ...option.ClientOption) (*Sender, error) {
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return NewSenderFromService(service, cfg, logger), nil
}

// NewSenderFromService wraps an existing service
func NewSenderFromService(service *gmail.Service, cfg config.MailConfig, logger *slog.Logger) *Sender {
	from := cfg.From
	if from == "" {
		from = userID
	}
	return &Sender{
		service: service,
		from:    from,
		logger:  infrastructure.WithComponent(logger, "mail"),
	}
}

// Send delivers body to every address in to and returns the message id.
// contentType is a MIME type or a bare subtype such as "plain" or "html".
func (s *Sender) Send(ctx context.Context, to []string, subject, body, contentType string) (string, error) {
	raw, err := Compose(s.from, to, subject, body, contentType)
	if err != nil {
		return "", err
	}

	sent, err := s.service.Users.Messages.Send(userID, &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		s.logger.ErrorContext(ctx, "send failed",
			slog.Int("recipients", len(to)),
			slog.String("error", err.Error()))
		return "", err
	}

	s.logger.InfoContext(ctx, "message sent",
		slog.String("message_id", sent.Id),
		slog.Int("recipients", len(to)))
	return sent.Id, nil
}

// Compose renders an RFC 822 message
func Compose(from string, to []string, subject, body, contentType string) ([]byte, error) {
	if len(to) == 0 {
		return nil, apperrors.InvalidField("to", "at least one recipient is required")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", strings.Join(to, ","))
	msg.SetHeader("Subject", subject)
	msg.SetBody(mimeType(contentType), body)

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to compose message: %w", err)
	}
	return buf.Bytes(), nil
}

func mimeType(contentType string) string {
	switch {
	case contentType == "":
		return "text/plain"
	case strings.Contains(contentType, "/"):
		return contentType
	default:
		return "text/" + contentType
	}
}
