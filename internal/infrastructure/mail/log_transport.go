package mail

import (
	"context"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"go.uber.org/zap"
)

// LogTransport writes mail to the application log instead of sending it
type LogTransport struct {
	logger *zap.Logger
}

// NewLogTransport creates a LogTransport
func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

// Deliver logs the message
func (t *LogTransport) Deliver(ctx context.Context, msg contract.MailMessage) error {
	t.logger.Info("mail",
		zap.String("from", msg.Sender.Email),
		zap.String("to", joinEmails(msg.Recipients.To)),
		zap.String("cc", joinEmails(msg.Recipients.Cc)),
		zap.Int("bcc", len(msg.Recipients.Bcc)),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.TextBody),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}
