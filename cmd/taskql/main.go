// Package main implements the entry point for taskql, a GraphQL API over a
// relational task table.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/taskql/config"
	"github.com/c360/taskql/events"
	"github.com/c360/taskql/gateway/graphql"
	"github.com/c360/taskql/health"
	"github.com/c360/taskql/metric"
	"github.com/c360/taskql/natsclient"
	"github.com/c360/taskql/pkg/retry"
	"github.com/c360/taskql/storage"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "taskql"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.Load(cliCfg.EnvFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Info("Configuration loaded", "config", cfg)

	if cliCfg.Validate {
		logger.Info("Configuration is valid")
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metricsRegistry := metric.NewMetricsRegistry()
	metrics := metricsRegistry.CoreMetrics()
	checker := health.NewChecker(appName, 5*time.Second, metrics)

	store, err := prepareStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	checker.Register("store", func(ctx context.Context) health.Status {
		return health.FromError("store", store.Ping(ctx), "store reachable")
	})

	var served storage.Store = store
	if cfg.NATS.Enabled() {
		natsClient, err := connectToNATS(ctx, cfg.NATS, metrics, logger)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
			defer cancel()
			if err := natsClient.Close(closeCtx); err != nil {
				logger.Warn("NATS drain incomplete", "error", err)
			}
		}()

		checker.Register("nats", func(_ context.Context) health.Status {
			if natsClient.IsHealthy() {
				return health.NewHealthy("nats", "connected")
			}
			return health.NewDegraded("nats", "task events are not being published: "+natsClient.Status().String())
		})

		served, err = events.NewStore(store, natsClient,
			events.WithSubjectPrefix(cfg.NATS.SubjectPrefix),
			events.WithRecorder(metrics),
			events.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("create event store: %w", err)
		}
	}

	resolver, err := graphql.NewResolver(served, logger, metrics)
	if err != nil {
		return fmt.Errorf("create resolver: %w", err)
	}

	server, err := graphql.NewServer(cfg.Server, resolver, logger,
		graphql.WithMetrics(metricsRegistry),
		graphql.WithHealthChecker(checker),
		graphql.WithShutdownTimeout(cliCfg.ShutdownTimeout))
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	if err := server.Setup(); err != nil {
		return fmt.Errorf("setup server: %w", err)
	}

	return runWithSignalHandling(ctx, server, cfg.Server, cliCfg.ShutdownTimeout)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(os.Stdout, cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("Starting taskql",
		"version", Version,
		"build_time", BuildTime,
		"env_file", cliCfg.EnvFile)

	return cliCfg, logger, false, nil
}

// connectToNATS connects the event publisher and wires its status into metrics.
func connectToNATS(
	ctx context.Context,
	cfg config.NATSConfig,
	metrics *metric.Metrics,
	logger *slog.Logger,
) (*natsclient.Client, error) {
	client, err := natsclient.NewClient(cfg.URL,
		natsclient.WithMaxReconnects(cfg.MaxReconnects),
		natsclient.WithReconnectWait(cfg.ReconnectWait),
		natsclient.WithClientName(appName),
		natsclient.WithLogger(logger),
		natsclient.WithHealthChangeCallback(metrics.RecordNATSStatus),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	logger.Info("Connecting to NATS", "subject_prefix", cfg.SubjectPrefix)
	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	policy := retry.Startup()
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warn("NATS not ready, retrying", "attempt", attempt, "delay", delay, "error", err)
	}
	if err := retry.Do(connCtx, policy, client.Connect); err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	metrics.RecordNATSStatus(true)

	return client, nil
}

// runWithSignalHandling serves until ctx is cancelled by SIGINT or SIGTERM.
func runWithSignalHandling(
	ctx context.Context,
	server *graphql.Server,
	serverCfg graphql.Config,
	shutdownTimeout time.Duration,
) error {
	errChan := make(chan error, 1)
	ready := make(chan struct{})

	// Start uses its own context so shutdown below controls the timeout.
	startCtx, stopStart := context.WithCancel(context.Background())
	defer stopStart()

	go func() {
		errChan <- server.Start(startCtx, ready)
	}()

	select {
	case <-ready:
		slog.Info("taskql ready",
			"graphql", fmt.Sprintf("http://%s%s", server.Addr(), serverCfg.Path))
	case err := <-errChan:
		return fmt.Errorf("start server: %w", err)
	}

	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	}

	if err := server.Stop(shutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errChan; err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}

	slog.Info("taskql shutdown complete")
	return nil
}
