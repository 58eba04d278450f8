// Package server initializes and runs the TaskKeeper application: it opens
// the store, runs migrations, builds the services and serves the HTTP API
// until a signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/rest"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/dmitrijs2005/taskkeeper/internal/server/validation"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	accountService *services.AccountService
	taskService    *services.TaskService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.Level())

	app := &App{config: c, logger: logger}
	if err := app.initStorage(ctx); err != nil {
		return nil, err
	}

	v, err := validation.New()
	if err != nil {
		app.close()
		return nil, fmt.Errorf("validation init error: %w", err)
	}
	codec, err := auth.NewTokenCodec([]byte(c.SecretKey))
	if err != nil {
		app.close()
		return nil, fmt.Errorf("token codec init error: %w", err)
	}
	hasher := auth.NewHasher(c.HashWorkers)

	app.accountService = services.NewAccountService(app.repomanager, hasher, codec, v, logger.With("module", "accounts"))
	app.taskService = services.NewTaskService(app.repomanager, v)

	return app, nil
}

func (app *App) initStorage(ctx context.Context) error {
	if app.config.UsesMemoryStore() {
		app.logger.Warn(ctx, "Using in-memory store, data is lost on exit")
		app.repomanager = repomanager.NewMemoryRepositoryManager()
		return nil
	}

	db, err := sql.Open("pgx", app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		app.close()
		return fmt.Errorf("db connect error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		app.close()
		return fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		app.close()
		return fmt.Errorf("migrations error: %w", err)
	}
	app.repomanager = rm
	return nil
}

func (app *App) close() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "closing db", "error", err)
		}
		app.db = nil
	}
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) newHTTPServer() *rest.Server {
	return rest.NewServer(app.config.EndpointAddrHTTP, app.logger, app.accountService, app.taskService,
		rest.WithReadiness(app.repomanager.Ping),
		rest.WithShutdownTimeout(app.config.ShutdownTimeout),
	)
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.newHTTPServer().Run(ctx)
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "app stopped with error", "error", err)
	} else {
		app.logger.Info(ctx, "App stopped")
	}
	return err
}
