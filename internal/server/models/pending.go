package models

import "time"

// PendingSignup is a signup waiting for its OTP.
type PendingSignup struct {
	Username     string
	PasswordHash string
	OTP          int
	Created      time.Time
	Profile      SignupProfile
}

// Expired reports whether the OTP is older than ttl at now.
func (p *PendingSignup) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.Created) > ttl
}
