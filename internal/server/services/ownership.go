package services

import (
	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/server/auth"
)

// RequireOwner rejects actors other than owner.
func RequireOwner(owner int64, actor auth.Identity) error {
	if actor.UserID != owner {
		return common.NewError(common.ErrorForbidden, "Profile does not belong to user")
	}
	return nil
}
