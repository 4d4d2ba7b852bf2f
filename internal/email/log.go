package email

import (
	"context"

	"go.uber.org/zap"
)

// LogSender records mail in the service log instead of delivering it.
// Used in development and whenever no SMTP relay is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender backed by the given logger.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message's envelope and returns nil. Bodies are not
// logged, only their size.
func (l *LogSender) Send(_ context.Context, msg Message) error {
	l.logger.Info("mail suppressed, no SMTP relay configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.Body)),
	)
	return nil
}
