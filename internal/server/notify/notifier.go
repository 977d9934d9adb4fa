// Package notify delivers one-time codes and reset passwords to users by
// email.
package notify

import (
	"context"
	"fmt"
)

// Notifier sends account messages. A nil error means the message was
// accepted for delivery.
type Notifier interface {
	SendOTP(ctx context.Context, otp int, email, name string) error
	SendPassword(ctx context.Context, password, email, name string) error
}

type message struct {
	to, name      string
	subject, text string
	html          string
}

func otpMessage(otp int, email, name string) message {
	code := fmt.Sprintf("%04d", otp)
	return message{
		to:      email,
		name:    name,
		subject: "Lostify: Sign up",
		text:    "LOSTIFY\n----------\nOTP for signup: " + code + "\nPlease enter this OTP to complete your signup.",
		html:    "<html><h1>Lostify</h1><p>OTP for signup: <b>" + code + "</b><p>Please enter this OTP to complete your signup.</html>",
	}
}

func passwordMessage(password, email, name string) message {
	return message{
		to:      email,
		name:    name,
		subject: "Lostify: Reset password",
		text:    "LOSTIFY\n----------\nYour new password is: " + password + "\nPlease change this password upon login.",
	}
}
