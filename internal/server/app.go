// Package server initializes and runs the entitlement server: it opens the
// database, applies migrations, wires the services, and serves the payment
// confirmation endpoints until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/quotakeeper/internal/logging"
	"github.com/dmitrijs2005/quotakeeper/internal/server/catalog"
	"github.com/dmitrijs2005/quotakeeper/internal/server/config"
	"github.com/dmitrijs2005/quotakeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/quotakeeper/internal/server/services"
	"github.com/dmitrijs2005/quotakeeper/internal/server/sessions"
	"github.com/dmitrijs2005/quotakeeper/internal/server/web"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	accountService *services.AccountService
	usageService   *services.UsageService
	paymentService *services.PaymentService
	sessionStore   *sessions.Store
	handler        *web.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	cat := catalog.Default()

	as := services.NewAccountService(db, rm, cat, logger, cfg.TrialMonths, int64(cfg.ReferralBonusDays))
	us := services.NewUsageService(db, rm, cat, logger)
	ps := services.NewPaymentService(db, rm, cat, logger, cfg.PlanTermDays)
	ss := sessions.NewStore(rdb, cfg.SessionTTL)

	return &App{
		config:         cfg,
		logger:         logger,
		db:             db,
		accountService: as,
		usageService:   us,
		paymentService: ps,
		sessionStore:   ss,
		handler:        web.NewHandler(ps, logger),
	}, nil
}

// AccountService exposes registration and profile reads to the transport layer.
func (app *App) AccountService() *services.AccountService { return app.accountService }

// UsageService exposes enforcement decisions to the transport layer.
func (app *App) UsageService() *services.UsageService { return app.usageService }

// PaymentService exposes payment creation and reconciliation.
func (app *App) PaymentService() *services.PaymentService { return app.paymentService }

// Sessions exposes the ephemeral conversation store.
func (app *App) Sessions() *sessions.Store { return app.sessionStore }

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

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.handler.Mux(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "serving payment endpoints", "addr", app.config.EndpointAddrHTTP)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
