package mail

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Sender delivers a magic-link token to the user's email address.
// Delivery is a side channel: the auth core only guarantees the token's
// lifecycle, not that the message arrives.
type Sender interface {
	SendMagicLink(ctx context.Context, email, token string, expires time.Time) error
}

// LogSender writes the magic link to the log instead of sending mail.
// Stands in for a real delivery integration in development and tests.
type LogSender struct {
	log         *zap.Logger
	frontendURL string
}

func NewLogSender(log *zap.Logger, frontendURL string) *LogSender {
	return &LogSender{log: log, frontendURL: frontendURL}
}

func (s *LogSender) SendMagicLink(ctx context.Context, email, token string, expires time.Time) error {
	link := fmt.Sprintf("%s/auth/verify?token=%s", s.frontendURL, token)
	s.log.Info("magic link generated",
		zap.String("email", email),
		zap.String("link", link),
		zap.Time("expires", expires),
	)
	return nil
}
