package notify

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// LogSink writes messages to the log instead of sending them. It exists for
// local development without an SMTP server and prints the message body,
// secrets included.
type LogSink struct {
	logger logging.Logger
}

func NewLogSink(l logging.Logger) *LogSink {
	return &LogSink{logger: l.With("module", "log_sink")}
}

func (s *LogSink) Send(ctx context.Context, msg Message) error {
	s.logger.Warn(ctx, "mail not sent, SMTP is not configured",
		"kind", msg.Kind, "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}
