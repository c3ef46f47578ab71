// Package server wires configuration, storage, services and the HTTP
// transport together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/flippy/internal/logging"
	"github.com/dmitrijs2005/flippy/internal/server/aiclient"
	"github.com/dmitrijs2005/flippy/internal/server/config"
	"github.com/dmitrijs2005/flippy/internal/server/documents"
	"github.com/dmitrijs2005/flippy/internal/server/httpapi"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/flippy/internal/server/services"
	"github.com/dmitrijs2005/flippy/internal/server/sessions"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// seams for tests
var (
	openDB               = sql.Open
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	newDocumentArchiver  = newS3Archiver
	startupPingTimeout   = 10 * time.Second
)

func newS3Archiver(ctx context.Context, cfg *config.Config) (documents.Archiver, error) {
	return documents.NewS3Archiver(ctx, cfg)
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	sessions *sessions.Registry
	usage    *services.UsageLogger
	handler  http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	proxies, err := c.TrustedProxyPrefixes()
	if err != nil {
		return nil, err
	}

	db, err := openDB("pgx", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	reg := sessions.NewRegistry(sessions.WithTTL(c.SessionTTL))

	auth, err := services.NewAuthService(db, rm, reg, c.BcryptCost, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("auth service init error: %w", err)
	}

	var archiver documents.Archiver
	if c.ArchiveEnabled() {
		archiver, err = newDocumentArchiver(ctx, c)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("document archive init error: %w", err)
		}
	}

	gen := aiclient.New(aiclient.Options{
		URL:     c.AIServiceURL,
		Token:   c.AIToken,
		Model:   c.AIModel,
		Timeout: c.AITimeout,
	}, logger)

	usage := services.NewUsageLogger(db, rm, services.DefaultUsageWriteTimeout, logger)

	app := &App{
		config:   c,
		logger:   logger,
		db:       db,
		sessions: reg,
		usage:    usage,
	}
	app.handler = httpapi.NewRouter(httpapi.Deps{
		Auth:           auth,
		Cards:          services.NewCardService(db, rm, gen, archiver, logger),
		Admin:          services.NewAdminService(db, rm, auth, logger),
		Usage:          usage,
		Sessions:       reg,
		Logger:         logger,
		ClientOrigin:   c.ClientOrigin,
		RequestTimeout: c.RequestTimeout,
		SecureCookies:  secureOrigin(c.ClientOrigin),
		Health:         db.PingContext,

		AuthRatePerMinute: c.AuthRatePerMinute,
		TrustedProxies:    proxies,
	})

	return app, nil
}

// secureOrigin reports whether the browser client is served over https,
// in which case the session cookie is marked Secure.
func secureOrigin(origin string) bool {
	u, err := url.Parse(origin)
	return err == nil && u.Scheme == "https"
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
	s := httpapi.NewHTTPServer(app.config.HTTPAddr, app.handler, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or the process receives SIGINT,
// SIGTERM or SIGQUIT, then drains requests, pending usage writes and the
// database pool.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.sessions.Shutdown()
	app.usage.Wait()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "close database", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
