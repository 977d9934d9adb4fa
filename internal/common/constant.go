package common

import "time"

const (
	// SessionCookieName is the cookie carrying the signed session token.
	SessionCookieName = "session"

	// AuthenticateChallenge is sent in WWW-Authenticate on 401 responses.
	AuthenticateChallenge = `Cookie realm="lostify", cookie-name="session"`

	// OTPTimeout is how long a pending signup accepts its OTP.
	OTPTimeout = 5 * time.Minute

	// MaxOTP bounds generated one-time codes to 0..MaxOTP-1.
	MaxOTP = 1000000

	// LoginAttemptLimit failed logins open the throttle window.
	LoginAttemptLimit = 5

	// LoginThrottleWindow is measured from the last failed attempt.
	LoginThrottleWindow = 30 * time.Second
)
