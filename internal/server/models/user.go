package models

import "time"

// Role is the authorization level stored with each user.
type Role int16

const (
	RoleRegular Role = 0
	RoleAdmin   Role = 1
)

func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "regular"
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	Counter      int
	LastAttempt  *time.Time
}
