// cmd/leaksim/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-leaksim/pkg/config"
	"github.com/opd-ai/go-leaksim/pkg/engine"
	"github.com/opd-ai/go-leaksim/pkg/event"
	"github.com/opd-ai/go-leaksim/pkg/health"
	"github.com/opd-ai/go-leaksim/pkg/logging"
	"github.com/opd-ai/go-leaksim/pkg/notify"
	"github.com/opd-ai/go-leaksim/pkg/render"
	"github.com/opd-ai/go-leaksim/pkg/resource"
	"github.com/opd-ai/go-leaksim/pkg/stream"
	"github.com/opd-ai/go-leaksim/pkg/validation"
)

const (
	renderInterval = 200 * time.Millisecond
	maxTickStall   = 5 * time.Second
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "config.json", "Path to configuration file")
	scenarioPath := flag.String("scenario", "", "Path to a JSON or YAML scenario; the built-in room is used when empty")
	createDefault := flag.Bool("default", false, "Write the default configuration and scenario files, then exit")
	drawTerminal := flag.Bool("render", false, "Draw the world to the terminal")
	seed := flag.Uint64("seed", 0, "Random seed; overrides the configuration when non-zero")
	flag.Parse()

	if *createDefault {
		if err := writeDefaults(*configPath, *scenarioPath); err != nil {
			logger.Error(ctx, "Failed to create default files", err, "config_path", *configPath)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default files", "config_path", *configPath, "scenario_path", *scenarioPath)
		return
	}

	cfg, err := loadConfig(ctx, logger, *configPath)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err, "config_path", *configPath)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	scn := config.DefaultScenario()
	if *scenarioPath != "" {
		if scn, err = config.LoadScenario(*scenarioPath); err != nil {
			logger.Error(ctx, "Failed to load scenario", err, "scenario_path", *scenarioPath)
			os.Exit(1)
		}
	}

	if err := run(ctx, logger, cfg, scn, *drawTerminal); err != nil {
		logger.Error(ctx, "Simulation failed", err)
		os.Exit(1)
	}
}

func writeDefaults(configPath, scenarioPath string) error {
	if err := config.SaveConfig(config.DefaultConfig(), configPath); err != nil {
		return err
	}
	if scenarioPath == "" {
		return nil
	}
	return config.SaveScenario(config.DefaultScenario(), scenarioPath)
}

func loadConfig(ctx context.Context, logger *logging.Logger, path string) (*config.SimConfig, error) {
	var cfg *config.SimConfig
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default configuration", "config_path", path)
		cfg = config.DefaultConfig()
	} else if cfg, err = config.LoadConfig(path); err != nil {
		return nil, err
	}

	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, logger *logging.Logger, cfg *config.SimConfig, scn *config.Scenario, drawTerminal bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithCorrelationID(ctx, "")

	bus := event.NewEventBus()
	world, err := engine.NewWorld(cfg, scn, engine.WithEventBus(bus), engine.WithLogger(logger))
	if err != nil {
		return err
	}

	manager := resource.NewManager(resource.LimitsFromConfig(cfg.Resources), logger)
	if err := manager.Start(ctx); err != nil {
		return err
	}

	client := notify.NewClient(cfg.Notifier, logger)
	dispatcher := notify.NewDispatcher(client, manager,
		notify.WithDispatcherLogger(logger),
		notify.WithMaxInFlight(cfg.Notifier.MaxInFlight),
	)
	if err := dispatcher.Start(ctx, bus); err != nil {
		return err
	}

	runner := engine.NewRunner(world, cfg.Runner, logger)

	checker := health.NewHealthChecker()
	checker.AddCheck(health.NewSimulationHealthCheck(runner.LastTick, maxTickStall))
	checker.AddCheck(health.NewNotifierHealthCheck(client.State))
	checker.AddCheck(resource.NewHealthCheck(manager))

	var renderer render.Renderer = render.NewNullRenderer(logger)
	if drawTerminal {
		term := render.NewTerminalRenderer(os.Stdout, 60, 30, 1)
		term.Fit(world.Snapshot().Bounds())
		renderer = term
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(gctx) })
	g.Go(func() error { return renderLoop(gctx, world, renderer) })

	if port := cfg.Server.HealthPort; port > 0 {
		serve(gctx, g, logger, "health", port, checker.Handler())
	}
	if port := cfg.Server.StreamPort; port > 0 {
		limiter := validation.NewRateLimiter(cfg.Server.StreamRate, time.Minute)
		defer limiter.Close()

		mux := http.NewServeMux()
		mux.Handle("/stream", stream.NewHandler(gctx, world, cfg.Server.StreamInterval, limiter, logger))
		serve(gctx, g, logger, "stream", port, mux)
	}

	logger.Info(ctx, "Simulation running",
		"walls", len(scn.Walls),
		"pipes", len(scn.Pipes),
		"seed", cfg.Seed,
		"notify_url", cfg.Notifier.URL,
	)
	runErr := g.Wait()

	logger.Info(ctx, "Shutting down", "tick", world.Tick())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Notifier.ShutdownGracePeriod)
	defer cancel()

	if err := dispatcher.Wait(shutdownCtx); err != nil {
		logger.Warn(ctx, "Pending leak notifications abandoned", "error", err.Error())
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Resource manager shutdown incomplete", "error", err.Error())
	}

	journal := dispatcher.Journal()
	logger.Info(ctx, "Notification summary",
		"sent", journal.Count(notify.StatusSent),
		"failed", journal.Count(notify.StatusFailed),
		"dropped", journal.Count(notify.StatusDropped),
	)
	return runErr
}

// serve runs srv on g and shuts it down when ctx ends
func serve(ctx context.Context, g *errgroup.Group, logger *logging.Logger, name string, port int, handler http.Handler) {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info(ctx, "Starting server", "name", name, "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func renderLoop(ctx context.Context, world *engine.World, renderer render.Renderer) error {
	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := renderer.Render(world.Snapshot()); err != nil {
				return fmt.Errorf("render: %w", err)
			}
		}
	}
}
