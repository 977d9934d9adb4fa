package notify

import (
	"context"

	"github.com/lostify/lostify/internal/logging"
)

// LogNotifier writes messages to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notify")}
}

func (n *LogNotifier) SendOTP(ctx context.Context, otp int, email, name string) error {
	n.logger.Warn(ctx, "smtp disabled, otp not mailed", "to", email, "otp", otp)
	return nil
}

func (n *LogNotifier) SendPassword(ctx context.Context, password, email, name string) error {
	n.logger.Warn(ctx, "smtp disabled, password not mailed", "to", email)
	return nil
}
