package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func newTestNotifier(send func(m ...*gomail.Message) error) *SMTPNotifier {
	n := NewSMTPNotifier(SMTPConfig{
		Host:         "localhost",
		Port:         25,
		From:         "noreply@lostify.test",
		PollInterval: 5 * time.Millisecond,
		MaxPolls:     6,
	}, logging.Discard())
	n.send = send
	return n
}

func TestSendOTP_Success(t *testing.T) {
	var got *gomail.Message
	n := newTestNotifier(func(m ...*gomail.Message) error {
		got = m[0]
		return nil
	})

	require.NoError(t, n.SendOTP(context.Background(), 42, "alice@iitk.ac.in", "Alice"))
	require.NotNil(t, got)

	assert.Equal(t, []string{"Lostify: Sign up"}, got.GetHeader("Subject"))
	assert.Equal(t, []string{`"Alice" <alice@iitk.ac.in>`}, got.GetHeader("To"))

	var buf bytes.Buffer
	_, err := got.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "OTP for signup: 0042")
}

func TestSendPassword_Body(t *testing.T) {
	var got *gomail.Message
	n := newTestNotifier(func(m ...*gomail.Message) error {
		got = m[0]
		return nil
	})

	require.NoError(t, n.SendPassword(context.Background(), "s3cr3t", "bob@iitk.ac.in", "Bob"))

	var buf bytes.Buffer
	_, err := got.WriteTo(&buf)
	require.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), "Your new password is: s3cr3t"))
}

func TestSend_Failure(t *testing.T) {
	n := newTestNotifier(func(m ...*gomail.Message) error {
		return errors.New("550 mailbox unavailable")
	})

	err := n.SendOTP(context.Background(), 1, "x@y", "X")
	assert.ErrorIs(t, err, common.ErrorDeliveryFailed)
	assert.Contains(t, err.Error(), "550")
}

func TestSend_TimesOutAfterMaxPolls(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	n := newTestNotifier(func(m ...*gomail.Message) error {
		<-release
		return nil
	})

	start := time.Now()
	err := n.SendOTP(context.Background(), 1, "x@y", "X")
	assert.ErrorIs(t, err, common.ErrorDeliveryTimedOut)
	assert.GreaterOrEqual(t, time.Since(start), 6*n.pollInterval)
}

func TestSend_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	n := newTestNotifier(func(m ...*gomail.Message) error {
		<-release
		return nil
	})
	n.pollInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.SendPassword(ctx, "p", "x@y", "X")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(logging.Discard())
	assert.NoError(t, n.SendOTP(context.Background(), 1, "x@y", "X"))
	assert.NoError(t, n.SendPassword(context.Background(), "p", "x@y", "X"))
}
