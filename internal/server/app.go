// Package server initializes and runs the account service: it selects the
// credential-store and notification backends from configuration, wires the
// lifecycle service, and serves the HTTP endpoint until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/dkotelnikov/accountd/internal/logging"
	"github.com/dkotelnikov/accountd/internal/server/account"
	"github.com/dkotelnikov/accountd/internal/server/config"
	"github.com/dkotelnikov/accountd/internal/server/email"
	"github.com/dkotelnikov/accountd/internal/server/httpapi"
	"github.com/dkotelnikov/accountd/internal/server/passwd"
	"github.com/dkotelnikov/accountd/internal/server/store"
	"github.com/dkotelnikov/accountd/internal/server/store/dynamo"
	"github.com/dkotelnikov/accountd/internal/server/store/memory"
	"github.com/dkotelnikov/accountd/internal/server/store/postgres"
	"github.com/dkotelnikov/accountd/internal/server/tokens"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	accounts *account.Service
	closeFns []func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	app := &App{config: cfg, logger: logger}

	st, err := app.initStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}
	sink, err := app.initSink(ctx)
	if err != nil {
		return nil, fmt.Errorf("email init error: %w", err)
	}
	hasher, err := passwd.New(passwd.Strategy(cfg.HashStrategy), cfg.HashIterations)
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	app.accounts = account.NewService(cfg, st, sink, hasher, tokens.NewIssuer(), logger)
	return app, nil
}

func (app *App) initStore(ctx context.Context) (store.CredentialStore, error) {
	switch app.config.StorageBackend {
	case "postgres":
		st, err := postgres.Open(ctx, app.config.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		app.closeFns = append(app.closeFns, st.Close)
		return st, nil
	case "dynamo":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(app.config.AWSRegion))
		if err != nil {
			return nil, err
		}
		return dynamo.New(dynamodb.NewFromConfig(awsCfg), app.config.DynamoTableName), nil
	case "memory":
		app.logger.Warn(ctx, "using in-memory store, data will not survive restarts")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", app.config.StorageBackend)
	}
}

// initSink selects SES when a sender address is configured, otherwise the
// logging no-op sink.
func (app *App) initSink(ctx context.Context) (email.Sink, error) {
	if app.config.SESSender == "" {
		return email.NewNoopSink(app.logger), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(app.config.AWSRegion))
	if err != nil {
		return nil, err
	}
	return email.NewSESSink(sesv2.NewFromConfig(awsCfg), app.config.SESSender), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	handler := httpapi.NewHandler(app.accounts, app.logger)
	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: handler.Router(),
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddrHTTP)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
	}

	for _, closeFn := range app.closeFns {
		if err := closeFn(); err != nil {
			app.logger.Error(ctx, "close error", "error", err.Error())
		}
	}
}
