package verify

import (
	"context"
	"log/slog"
)

// Sender delivers a verification token to an email address. SMTP wiring
// lives outside the core; deployments plug in their own implementation.
type Sender interface {
	SendVerification(ctx context.Context, email, verifyURL string) error
}

// LogSender writes the verification link to the log instead of sending
// mail. Default for development.
type LogSender struct{}

func (LogSender) SendVerification(_ context.Context, email, verifyURL string) error {
	slog.Info("verification link issued", "email", email, "url", verifyURL)
	return nil
}
