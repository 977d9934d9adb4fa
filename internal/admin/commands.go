// Package admin implements lostifyctl, the operator tool for account
// maintenance that has no HTTP surface.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/lostify/lostify/internal/flagx"
	"github.com/lostify/lostify/internal/server/models"
)

// Accounts is the part of the auth service lostifyctl drives.
type Accounts interface {
	SetRole(ctx context.Context, username string, role models.Role) error
	SetPassword(ctx context.Context, username, password string) error
}

var ErrUsage = errors.New("usage: lostifyctl <promote|demote|set-password> -u <username>")

// Run executes the command named by args[0]. Flags that belong to the
// server configuration may be mixed in; only -u is read here.
func Run(ctx context.Context, args []string, accounts Accounts, w io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}
	cmd := args[0]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.String("u", "", "username")
	if err := fs.Parse(flagx.FilterArgs(args[1:], []string{"-u"})); err != nil {
		return err
	}
	if *username == "" {
		return ErrUsage
	}

	switch cmd {
	case "promote":
		return setRole(ctx, accounts, w, *username, models.RoleAdmin)
	case "demote":
		return setRole(ctx, accounts, w, *username, models.RoleRegular)
	case "set-password":
		pw, err := GetNewPassword(w)
		if err != nil {
			return err
		}
		defer wipe(pw)
		if err := accounts.SetPassword(ctx, *username, string(pw)); err != nil {
			return fmt.Errorf("set password: %w", err)
		}
		fmt.Fprintf(w, "password of %s updated\n", *username)
		return nil
	default:
		return ErrUsage
	}
}

func setRole(ctx context.Context, accounts Accounts, w io.Writer, username string, role models.Role) error {
	if err := accounts.SetRole(ctx, username, role); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	fmt.Fprintf(w, "%s is now %s\n", username, role)
	return nil
}
