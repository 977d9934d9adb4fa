package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/logging"
	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	From         string
	PollInterval time.Duration
	MaxPolls     int
}

// SMTPNotifier sends through an SMTP relay. Each send runs in its own
// goroutine and is given up after MaxPolls poll intervals.
type SMTPNotifier struct {
	from         string
	pollInterval time.Duration
	maxPolls     int
	logger       logging.Logger
	send         func(m ...*gomail.Message) error
}

func NewSMTPNotifier(cfg SMTPConfig, logger logging.Logger) *SMTPNotifier {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPNotifier{
		from:         cfg.From,
		pollInterval: cfg.PollInterval,
		maxPolls:     cfg.MaxPolls,
		logger:       logger.With("module", "notify"),
		send:         dialer.DialAndSend,
	}
}

func (n *SMTPNotifier) SendOTP(ctx context.Context, otp int, email, name string) error {
	return n.deliver(ctx, otpMessage(otp, email, name))
}

func (n *SMTPNotifier) SendPassword(ctx context.Context, password, email, name string) error {
	return n.deliver(ctx, passwordMessage(password, email, name))
}

func (n *SMTPNotifier) build(msg message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetAddressHeader("To", msg.to, msg.name)
	m.SetHeader("Subject", msg.subject)
	m.SetBody("text/plain", msg.text)
	if msg.html != "" {
		m.AddAlternative("text/html", msg.html)
	}
	return m
}

func (n *SMTPNotifier) deliver(ctx context.Context, msg message) error {
	m := n.build(msg)

	done := make(chan error, 1)
	go func() {
		done <- n.send(m)
	}()

	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()

	for polls := 0; ; {
		select {
		case err := <-done:
			if err != nil {
				n.logger.Error(ctx, "email send failed", "to", msg.to, "error", err)
				return fmt.Errorf("%w: %v", common.ErrorDeliveryFailed, err)
			}
			n.logger.Info(ctx, "email sent", "to", msg.to, "subject", msg.subject)
			return nil
		case <-ticker.C:
			polls++
			n.logger.Debug(ctx, "email send pending", "to", msg.to, "polls", polls)
			if polls >= n.maxPolls {
				return common.ErrorDeliveryTimedOut
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
