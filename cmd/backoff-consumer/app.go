package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"sqsbackoff/internal/admin"
	"sqsbackoff/internal/broker"
	"sqsbackoff/internal/config"
	"sqsbackoff/internal/constants"
	"sqsbackoff/internal/logger"
	"sqsbackoff/internal/pipeline"
	"sqsbackoff/pkg/bootstrap"
	"sqsbackoff/pkg/health"
	"sqsbackoff/pkg/logging"
	"sqsbackoff/pkg/metrics"
	"sqsbackoff/pkg/tracing"
)

const serviceName = constants.DefaultServiceName

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	redis          *redis.Client
	pipeline       *pipeline.Pipeline
	poller         broker.Consumer
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(serviceName)
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.InitSQS(ctx); err != nil {
		return fmt.Errorf("failed to initialize SQS: %w", err)
	}

	rdb, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	a.redis = rdb

	tp, err := tracing.Init(a.Config.Tracing, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterConsumerMetrics()
	metrics.RegisterQueueMetrics()
	metrics.RegisterRateLimitMetrics()
	if a.redis != nil {
		metrics.RegisterLedgerMetrics()
	}
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	p, err := pipeline.New(a.Config, a.Logger, a.SQS, a.redis)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	a.pipeline = p

	poller := broker.NewPoller(a.SQS, a.Config.Queue, p.Driver, p.Processor.Process, a.Logger)
	poller.SetServiceName(serviceName)
	a.poller = poller

	a.initHTTPServer()

	return nil
}

func (a *App) initHTTPServer() {
	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewSQSChecker(a.SQS, a.Config.Queue.URL))
	if a.redis != nil {
		healthRegistry.RegisterOptional(health.NewRedisChecker(a.redis))
	}

	handler := admin.NewHandler(a.pipeline.Schedule, a.pipeline.Ledger, a.Logger)
	router := admin.NewRouter(a.Config, a.Logger, handler, healthRegistry, serviceName)

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds,
	}
}

// Run serves HTTP and polls until ctx is cancelled or either fails. Shutdown
// runs only after the poller has returned, so the last batch still has its
// Redis client and tracer provider.
func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := a.poller.Run(gCtx)
		if stopErr := a.stopHTTPServer(); stopErr != nil {
			a.Logger.WarnwCtx(ctx, "HTTP server shutdown error", "error", stopErr)
		}
		return err
	})

	runErr := g.Wait()

	if err := a.Shutdown(context.WithoutCancel(ctx)); err != nil {
		a.Logger.ErrorwCtx(ctx, "Shutdown failed", "error", err)
		if runErr == nil || errors.Is(runErr, context.Canceled) {
			return err
		}
	}
	return runErr
}

func (a *App) stopHTTPServer() error {
	if a.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	return a.server.Shutdown(ctx)
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, serviceName)
	a.Logger.InfowCtx(shutdownCtx, "Shutting down backoff consumer")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if err := a.stopHTTPServer(); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
		}

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(a.redis)...)

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
