package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/speedwagon-io/hwmon/internal/config"
	"github.com/speedwagon-io/hwmon/internal/display"
	"github.com/speedwagon-io/hwmon/internal/journal"
	"github.com/speedwagon-io/hwmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/hwmon/internal/provider"
	"github.com/speedwagon-io/hwmon/internal/provider/adapters"
	"github.com/speedwagon-io/hwmon/internal/sampler"
	"github.com/speedwagon-io/hwmon/internal/server"
	"github.com/speedwagon-io/hwmon/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	dryRun := flag.Bool("dry-run", false, "serve fixed demo readings instead of querying the provider")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log := sl.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	log.Info("starting hwmon server",
		slog.String("env", cfg.Env),
		slog.String("host", cfg.Listen.Host),
		slog.Int("port", cfg.Listen.Port),
		slog.Bool("tls", cfg.Listen.TLS.Enabled()),
		slog.Bool("dry_run", *dryRun),
	)

	var prov provider.Provider
	if *dryRun {
		prov = adapters.NewFixedProvider(adapters.DemoReadings())
		log.Info("dry-run mode: serving fixed demo readings")
	} else {
		switch cfg.Provider.Adapter {
		case "lhm":
			prov = adapters.NewLHMBridge(log, cfg.Provider.BaseURL, cfg.Provider.Timeout)
		default:
			log.Error("unknown provider adapter", slog.String("adapter", cfg.Provider.Adapter))
			os.Exit(1)
		}
	}

	// Provider handshake: one probe read. Failure is not fatal; the sampler
	// will keep retrying and the store serves the empty snapshot meanwhile.
	probeCtx, probeCancel := context.WithTimeout(context.Background(), cfg.Sampling.Timeout)
	if readings, err := prov.Read(probeCtx); err != nil {
		log.Warn("provider probe failed", sl.Err(err))
	} else {
		log.Info("provider probe ok", slog.Int("sensors", len(readings)))
	}
	probeCancel()

	st := store.New()

	disp := display.NewManager(log, cfg.Display.Path, st.Discovered)
	loaded := disp.Load()
	log.Info("loaded display config",
		slog.Duration("refresh_interval", loaded.RefreshInterval),
		slog.Int("ordered_sensors", len(loaded.Order)),
	)

	var jr *journal.Journal
	if cfg.Journal.Enabled && !*dryRun {
		var err error
		jr, err = journal.Open(log, cfg.Journal.Path)
		if err != nil {
			log.Error("failed to open failure journal", sl.Err(err))
			os.Exit(1)
		}
		log.Info("failure journal enabled", slog.String("path", cfg.Journal.Path))
	}

	srv := server.New(log, cfg.Listen, st, disp)
	srv.AddChecker(server.NewSamplerHealthChecker(st, disp))
	if jr != nil {
		srv.AddChecker(server.NewJournalHealthChecker(jr.CountSince))
	}

	if err := srv.Start(); err != nil {
		log.Error("failed to start server", sl.Err(err))
		os.Exit(1)
	}

	smp := sampler.New(log, prov, st, disp, jr, cfg.Sampling.Timeout, cfg.Journal.MaxAge)

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", slog.String("signal", sig.String()))
		cancel()
	}()

	smp.Start(ctx)

	<-ctx.Done()

	smp.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop server", sl.Err(err))
	}

	if jr != nil {
		if err := jr.Close(); err != nil {
			log.Error("failed to close journal", sl.Err(err))
		}
	}

	log.Info("monitor stopped")
}
