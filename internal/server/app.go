// Package server wires the Lostify components together: database pool and
// migrations, tracing, services, and the HTTP and gRPC health servers.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lostify/lostify/internal/logging"
	"github.com/lostify/lostify/internal/server/auth"
	"github.com/lostify/lostify/internal/server/config"
	"github.com/lostify/lostify/internal/server/notify"
	"github.com/lostify/lostify/internal/server/repositories/repomanager"
	"github.com/lostify/lostify/internal/server/rest"
	"github.com/lostify/lostify/internal/server/services"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	gs "github.com/lostify/lostify/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	tracer   *tracesdk.TracerProvider
	handler  *rest.Handler
	notifier notify.Notifier
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	tp := initTracerProvider(ctx, c.ServiceName, c.TraceEndpoint, logger)

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		db.Close()
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, tracer: tp}
	app.notifier = newNotifier(c, logger)
	app.handler = app.newHandler(m)
	return app, nil
}

// initTracerProvider exports spans over OTLP/HTTP when an endpoint is
// configured and keeps them in-process otherwise.
func initTracerProvider(ctx context.Context, serviceName, endpoint string, logger logging.Logger) *tracesdk.TracerProvider {
	res := resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName))

	if endpoint != "" {
		exp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithInsecure(),
		)
		if err == nil {
			tp := tracesdk.NewTracerProvider(tracesdk.WithBatcher(exp), tracesdk.WithResource(res))
			otel.SetTracerProvider(tp)
			return tp
		}
		logger.Error(ctx, "init otlp exporter failed, using local tracer", "error", err)
	}

	tp := tracesdk.NewTracerProvider(tracesdk.WithResource(res))
	otel.SetTracerProvider(tp)
	return tp
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := otelsql.Open("pgx", dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			OmitConnResetSession: true,
			OmitConnPrepare:      true,
			OmitRows:             true,
		}),
	)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newNotifier(c *config.Config, logger logging.Logger) notify.Notifier {
	if c.SMTPHost == "" {
		return notify.NewLogNotifier(logger)
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:         c.SMTPHost,
		Port:         c.SMTPPort,
		Username:     c.SMTPUser,
		Password:     c.SMTPPassword,
		From:         c.SenderEmail,
		PollInterval: c.NotifierPollInterval,
		MaxPolls:     c.NotifierMaxPolls,
	}, logger)
}

func (app *App) newHandler(m repomanager.RepositoryManager) *rest.Handler {
	return rest.NewHandler(rest.Services{
		Auth:     services.NewAuthService(app.db, m, app.notifier, auth.NewBcryptHasher(), app.config, app.logger),
		Items:    services.NewItemService(app.db, m, app.logger),
		Claims:   services.NewClaimService(app.db, m, app.logger),
		Reports:  services.NewReportService(app.db, m),
		Profiles: services.NewProfileService(app.db, m),
		DB:       app.db,
	}, app.config.SessionValidityDuration, app.logger)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewServer(app.config.HTTPAddr, app.handler.Router(), app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.GRPCHealthAddr, app.db, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a signal arrives or either server fails, then releases
// the database pool and flushes pending spans.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.tracer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "tracer shutdown failed", "error", err)
	}
	app.logger.Info(shutdownCtx, "App stopped")
}
