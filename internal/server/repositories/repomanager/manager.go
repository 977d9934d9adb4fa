package repomanager

import (
	"context"
	"database/sql"

	"github.com/lostify/lostify/internal/dbx"
	"github.com/lostify/lostify/internal/server/repositories/confirmations"
	"github.com/lostify/lostify/internal/server/repositories/pendingsignups"
	"github.com/lostify/lostify/internal/server/repositories/posts"
	"github.com/lostify/lostify/internal/server/repositories/profiles"
	"github.com/lostify/lostify/internal/server/repositories/reports"
	"github.com/lostify/lostify/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound either to the pool or to an
// open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	PendingSignups(db dbx.DBTX) pendingsignups.Repository
	Posts(db dbx.DBTX) posts.Repository
	Confirmations(db dbx.DBTX) confirmations.Repository
	Reports(db dbx.DBTX) reports.Repository
}
