// Package server wires the gophauth components together and runs them:
// storage, account lock, notification dispatcher, credential service and
// the HTTP API. It also handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/lock"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/secrets"
	"github.com/dmitrijs2005/gophauth/internal/server/services"

	hs "github.com/dmitrijs2005/gophauth/internal/server/http"
)

const (
	lockTTL        = 10 * time.Second
	lockPrefix     = "gophauth:lock:"
	drainTimeout   = 15 * time.Second
	insecureJWTKey = "dev_secret_change_me"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	redis       *redis.Client
	dispatcher  *notify.Dispatcher
	metrics     *metrics.Metrics
	credentials *services.CredentialService
	httpServer  *hs.Server
}

// NewApp builds every component from c. logOut receives the JSON log.
func NewApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	logger := logging.NewJSONLogger(logOut, c.LogLevel)
	app := &App{config: c, logger: logger}

	if c.JWTSecret == insecureJWTKey {
		logger.Warn(ctx, "using the development JWT secret, set JWT_SECRET in production")
	}

	if err := app.initStore(ctx); err != nil {
		return nil, err
	}

	locker, err := app.initLocker(ctx)
	if err != nil {
		app.closeStore(ctx)
		return nil, err
	}

	sink, err := app.initSink(ctx)
	if err != nil {
		app.closeStore(ctx)
		app.closeRedis(ctx)
		return nil, err
	}

	app.metrics = metrics.New()
	app.dispatcher = notify.NewDispatcher(sink, logger, notify.DispatcherConfig{
		QueueSize: c.NotifyQueueSize,
		Workers:   c.NotifyWorkers,
	}, app.metrics)

	issuer := auth.NewJWTIssuer(c.JWTSecret, c.SessionTTL)

	app.credentials = services.NewCredentialService(services.Dependencies{
		Repositories: app.repomanager,
		Hasher:       auth.NewBcryptHasher(c.BcryptCost),
		Secrets:      secrets.NewGenerator(),
		Sessions:     issuer,
		Locker:       locker,
		Notifier:     app.dispatcher,
		Metrics:      app.metrics,
	}, services.CredentialConfig{
		TwoFactorTTL: c.TwoFactorTTL,
		ResetTTL:     c.ResetTTL,
		ResetURLBase: c.ResetURLBase,
	}, logger)

	app.httpServer = hs.NewServer(hs.Options{
		Address:     c.HTTPAddr,
		CORSOrigins: c.CORSOrigins,
		Gatherer:    app.metrics.Registry,
	}, logger, app.credentials, issuer)

	return app, nil
}

func (app *App) initStore(ctx context.Context) error {
	if app.config.DatabaseDSN == "" {
		app.logger.Warn(ctx, "DATABASE_DSN is empty, accounts are kept in memory")
		app.repomanager = repomanager.NewInMemoryRepositoryManager()
		return nil
	}

	m, err := repomanager.NewPostgresRepositoryManager(ctx, app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return fmt.Errorf("db migration error: %w", err)
	}
	app.repomanager = m
	return nil
}

func (app *App) initLocker(ctx context.Context) (lock.Locker, error) {
	if app.config.RedisAddr == "" {
		return lock.NewKeyedMutex(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: app.config.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	app.redis = client
	return lock.NewRedisLocker(client, lockPrefix, lockTTL), nil
}

func (app *App) initSink(ctx context.Context) (notify.Sink, error) {
	c := app.config
	if c.SMTPHost == "" {
		app.logger.Warn(ctx, "SMTP_HOST is empty, mail is written to the log")
		return notify.NewLogSink(app.logger), nil
	}

	sink, err := notify.NewSMTPSink(notify.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPassword,
		Secure:   c.SMTPSecure,
		From:     c.MailFrom,
	})
	if err != nil {
		return nil, fmt.Errorf("mail init error: %w", err)
	}
	return sink, nil
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

// Run serves HTTP until ctx ends or a termination signal arrives, then
// drains queued notifications and closes the store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	err := app.httpServer.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, err.Error())
	}

	app.shutdown(context.WithoutCancel(ctx))
	return err
}

func (app *App) shutdown(ctx context.Context) {
	dctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	if err := app.dispatcher.Close(dctx); err != nil {
		app.logger.Error(ctx, "notification queue not drained", "error", err.Error())
	}

	app.closeStore(ctx)
	app.closeRedis(ctx)
	app.logger.Info(ctx, "App stopped")
}

func (app *App) closeStore(ctx context.Context) {
	if app.repomanager == nil {
		return
	}
	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "store close error", "error", err.Error())
	}
}

func (app *App) closeRedis(ctx context.Context) {
	if app.redis == nil {
		return
	}
	if err := app.redis.Close(); err != nil {
		app.logger.Error(ctx, "redis close error", "error", err.Error())
	}
}
