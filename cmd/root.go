// Package cmd wires the whole process together: config loading, logging,
// tracing, the per-line engine instances and their transports, the admin
// HTTP API, and graceful shutdown.
//
// Grounded on the teacher's cmd/root.go: a cobra.Command whose RunE loads
// config via configulator, sets up slog+tint, starts background HTTP
// servers, then blocks in a signal handler that tears everything down in
// order.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/USA-RedDragon/configulator"
	"github.com/go-co-op/gocron/v2"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/ztrue/shutdown"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/t31hub/t31hub/internal/calllog"
	"github.com/t31hub/t31hub/internal/config"
	"github.com/t31hub/t31hub/internal/dteio"
	"github.com/t31hub/t31hub/internal/engine"
	"github.com/t31hub/t31hub/internal/fsconst"
	"github.com/t31hub/t31hub/internal/httpapi"
	"github.com/t31hub/t31hub/internal/kv"
	"github.com/t31hub/t31hub/internal/metrics"
	"github.com/t31hub/t31hub/internal/pprof"
	"github.com/t31hub/t31hub/internal/pubsub"
	"github.com/t31hub/t31hub/internal/t38io"
)

// NewCommand builds the root cobra command.
func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "t31hub",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:              runRoot,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	fmt.Printf("t31hub - %s (%s)\n", cmd.Annotations["version"], cmd.Annotations["commit"])

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	setupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanup, err := setupTracing(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup tracing: %w", err)
	}
	defer func() {
		if err := cleanup(ctx); err != nil {
			slog.Error("Failed to shutdown tracer", "error", err)
		}
	}()

	startBackgroundServices(cfg)

	db, err := calllog.MakeDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to open call log database: %w", err)
	}
	tracker := calllog.NewTracker(db)

	kvStore, err := kv.MakeKV(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to key-value store: %w", err)
	}

	ps, err := pubsub.MakePubSub(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to pubsub: %w", err)
	}

	scheduler, err := setupScheduler()
	if err != nil {
		return err
	}
	setupMaintenanceJobs(scheduler, tracker, kvStore)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	m := metrics.New()

	lines, _, err := buildLines(ctx, cfg, m, ps, tracker)
	if err != nil {
		return fmt.Errorf("failed to build engine lines: %w", err)
	}

	statusProviders := make([]httpapi.LineStatusProvider, len(lines))
	for i, l := range lines {
		statusProviders[i] = l
	}
	admin := httpapi.New(cfg, ps, statusProviders, slog.Default())

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range lines {
		l := l
		g.Go(func() error {
			return l.Run(gctx)
		})
	}
	g.Go(func() error {
		return runAdminServer(gctx, admin)
	})

	setupShutdownHandlers(scheduler, kvStore, ps, db)

	return g.Wait()
}

// loadConfig loads the configuration from context.
func loadConfig(ctx context.Context) (*config.Config, error) {
	c, err := configulator.FromContext[config.Config](ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get config from context: %w", err)
	}
	cfg, err := c.LoadWithoutValidation()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// setupLogger configures the structured logger.
func setupLogger(cfg *config.Config) {
	var logger *slog.Logger
	switch cfg.LogLevel {
	case config.LogLevelDebug:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug}))
	case config.LogLevelInfo:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	case config.LogLevelWarn:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelWarn}))
	case config.LogLevelError:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelError}))
	default:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	}
	slog.SetDefault(logger)
}

// setupScheduler creates the job scheduler.
func setupScheduler() (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return scheduler, nil
}

const staleCallMaxAge = 30 * time.Minute
const maintenanceSweepInterval = 5 * time.Minute

// setupMaintenanceJobs schedules the periodic sweep that closes out
// abandoned call-log rows, the domain equivalent of the teacher's daily
// repeaterdb/userdb refresh jobs. kvStore is accepted but the sweep does not
// touch it.
func setupMaintenanceJobs(scheduler gocron.Scheduler, tracker *calllog.Tracker, kvStore kv.KV) {
	_, err := scheduler.NewJob(
		gocron.DurationJob(maintenanceSweepInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			n := tracker.SweepStale(ctx, staleCallMaxAge)
			if n > 0 {
				slog.Info("swept stale call log rows", "count", n)
			}
		}),
	)
	if err != nil {
		slog.Error("Failed to schedule call log sweep", "error", err)
	}
}

// setupTracing initializes OpenTelemetry tracing if configured, returning a
// no-op cleanup otherwise.
func setupTracing(cfg *config.Config) (func(context.Context) error, error) {
	if cfg.Metrics.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	return initTracer(cfg)
}

func initTracer(cfg *config.Config) (func(context.Context) error, error) {
	exporter, err := otlptrace.New(
		context.Background(),
		otlptracegrpc.NewClient(
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.Metrics.OTLPEndpoint),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	resources, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", "t31hub"),
			attribute.String("library.language", "go"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resources: %w", err)
	}

	otel.SetTracerProvider(
		sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resources),
		),
	)
	return exporter.Shutdown, nil
}

// startBackgroundServices starts the metrics and pprof servers.
func startBackgroundServices(cfg *config.Config) {
	go func() {
		if err := metrics.Run(context.Background(), metrics.CreateMetricsServer(cfg)); err != nil {
			slog.Error("Failed to run metrics server", "error", err)
		}
	}()
	go func() {
		if err := pprof.Run(context.Background(), pprof.CreatePProfServer(cfg)); err != nil {
			slog.Error("Failed to run pprof server", "error", err)
		}
	}()
}

func runAdminServer(ctx context.Context, admin *httpapi.Server) error {
	if err := admin.Run(ctx); err != nil {
		slog.Error("admin http api stopped", "error", err)
		return err
	}
	return nil
}

// multiStatusSink fans a modem-status transition out to every sink that
// needs to observe it: the admin websocket feed and the call-log tracker.
type multiStatusSink []engine.StatusSink

func (m multiStatusSink) ModemStatusChanged(line int, modem fsconst.Modem) {
	for _, sink := range m {
		sink.ModemStatusChanged(line, modem)
	}
}

// buildLines constructs one engine.Engine/dteio.Line pair per configured
// line, wired to the shared T.38 UDP gateway when enabled.
func buildLines(ctx context.Context, cfg *config.Config, m *metrics.Metrics, ps pubsub.PubSub, tracker *calllog.Tracker) ([]*dteio.Line, engine.StatusSink, error) {
	adminSink := httpapi.NewStatusSink(ps, slog.Default())
	trackingSink := calllog.NewTrackingSink(tracker)
	statusSink := multiStatusSink{adminSink, trackingSink}

	var t38Server *t38io.Server
	if cfg.T38.Enabled {
		t38Server = t38io.NewServer(cfg, slog.Default())
		if err := t38Server.Start(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to start t38 gateway: %w", err)
		}
	}

	lines := make([]*dteio.Line, 0, cfg.Engine.Lines)
	for i := 0; i < cfg.Engine.Lines; i++ {
		port, err := dteio.OpenSerialPort(cfg.DTE)
		if err != nil {
			return nil, nil, err
		}
		line := dteio.NewLine(i, port, slog.Default())

		var t38Core engine.T38Core
		var remote *net.UDPAddr
		if t38Server != nil {
			remote, err = net.ResolveUDPAddr("udp", cfg.T38.Peers[i])
			if err != nil {
				return nil, nil, fmt.Errorf("failed to resolve t38 peer for line %d: %w", i, err)
			}
			t38Core = t38Server.BindLine(remote)
		}

		e, err := engine.New(
			engine.Config{
				Line:            i,
				T38Mode:         cfg.T38.Enabled,
				AdaptiveReceive: cfg.Engine.AdaptiveReceive,
				WithoutPacing:   cfg.T38.WithoutPacing,
				DefaultDTETimeoutMs: cfg.Engine.DTEInactivityTimeout.Milliseconds(),
			},
			nil, // analog audio I/O is out of scope; see DESIGN.md
			t38Core,
			line,
			line,
			line,
			m,
			slog.Default(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to construct engine for line %d: %w", i, err)
		}
		e.SetStatusSink(statusSink)
		line.Attach(e)
		if t38Server != nil {
			t38Server.AttachEngine(remote, e)
		}

		lines = append(lines, line)
	}

	return lines, statusSink, nil
}

// setupShutdownHandlers blocks until a termination signal arrives, then
// tears resources down in order and exits the process.
func setupShutdownHandlers(scheduler gocron.Scheduler, kvStore kv.KV, ps pubsub.PubSub, db *gorm.DB) {
	stop := func(sig os.Signal) {
		slog.Error("Shutting down due to signal", "signal", sig)
		wg := new(sync.WaitGroup)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := scheduler.Shutdown(); err != nil {
				slog.Error("Failed to stop scheduler", "error", err)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ps.Close(); err != nil {
				slog.Error("Failed to close pubsub", "error", err)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := kvStore.Close(); err != nil {
				slog.Error("Failed to close kv", "error", err)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			sqlDB, err := db.DB()
			if err != nil {
				slog.Error("Failed to access call log database", "error", err)
				return
			}
			if err := sqlDB.Close(); err != nil {
				slog.Error("Failed to close call log database", "error", err)
			}
		}()

		const timeout = 10 * time.Second
		c := make(chan struct{})
		go func() {
			defer close(c)
			wg.Wait()
		}()
		select {
		case <-c:
			slog.Info("All servers stopped, shutting down gracefully")
			os.Exit(0)
		case <-time.After(timeout):
			slog.Error("Shutdown timed out, forcing exit")
			os.Exit(1)
		}
	}

	shutdown.AddWithParam(stop)
	shutdown.Listen(syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
}
