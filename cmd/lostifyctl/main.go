package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lostify/lostify/internal/admin"
	"github.com/lostify/lostify/internal/logging"
	"github.com/lostify/lostify/internal/server/auth"
	"github.com/lostify/lostify/internal/server/config"
	"github.com/lostify/lostify/internal/server/notify"
	"github.com/lostify/lostify/internal/server/repositories/repomanager"
	"github.com/lostify/lostify/internal/server/services"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, slog.LevelWarn)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer db.Close()

	accounts := services.NewAuthService(db, repomanager.NewPostgresRepositoryManager(),
		notify.NewLogNotifier(logger), auth.NewBcryptHasher(), cfg, logger)

	if err := admin.Run(ctx, os.Args[1:], accounts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		db.Close()
		os.Exit(1)
	}
}
