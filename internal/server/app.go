// Package server wires configuration, storage and services together and
// runs the HTTP API next to the gRPC health endpoint.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/ideaboard/internal/dbx"
	"github.com/dmitrijs2005/ideaboard/internal/logging"
	"github.com/dmitrijs2005/ideaboard/internal/server/auth"
	"github.com/dmitrijs2005/ideaboard/internal/server/config"
	"github.com/dmitrijs2005/ideaboard/internal/server/httpapi"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ideaboard/internal/server/services"
	"github.com/gin-gonic/gin"

	gs "github.com/dmitrijs2005/ideaboard/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	api         *httpapi.API
}

// NewApp validates cfg, opens storage and builds the services. An empty
// DatabaseDSN selects the in-memory store.
func NewApp(ctx context.Context, cfg *config.Config, out io.Writer) (*App, error) {
	logger, err := logging.New(out, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	rm, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseDSN == "" {
		logger.Warn(ctx, "DATABASE_DSN is empty, using in-memory storage")
	}

	hasher, err := auth.NewHasher(auth.DefaultArgon2Params)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	api := httpapi.NewAPI(cfg, NewServices(rm, hasher, cfg), logger)

	return &App{config: cfg, logger: logger, repomanager: rm, api: api}, nil
}

// OpenStorage returns the repository manager selected by cfg, with
// migrations applied when enabled.
func OpenStorage(ctx context.Context, cfg *config.Config) (repomanager.RepositoryManager, error) {
	if cfg.DatabaseDSN == "" {
		return repomanager.NewInMemoryRepositoryManager(), nil
	}

	db, err := dbx.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager(db)
	if cfg.RunMigrations {
		if err := rm.RunMigrations(ctx); err != nil {
			_ = rm.Close()
			return nil, err
		}
	}
	return rm, nil
}

// NewServices builds the service layer over rm.
func NewServices(rm repomanager.RepositoryManager, hasher *auth.Hasher, cfg *config.Config) httpapi.Services {
	codec := auth.NewCodec(cfg)
	creds := services.NewCredentialService(rm, hasher, codec, cfg)

	return httpapi.Services{
		Credentials: creds,
		Sessions:    services.NewSessionResolver(rm, codec),
		Users:       services.NewUserService(rm, hasher, creds),
		Ideas:       services.NewIdeaService(rm),
		Votes:       services.NewVoteService(rm),
	}
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
	s := httpapi.NewServer(app.config.HTTPAddr, app.api.Router(), app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.HealthAddrGRPC, app.logger, app.repomanager, gs.DefaultCheckInterval)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails,
// then closes storage.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	gin.SetMode(gin.ReleaseMode)

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

	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "storage close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
