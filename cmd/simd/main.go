// Command simd is the simulation server: it loads configuration, opens
// the versioned component store, starts the cooperative scheduler,
// and listens for authenticated connections.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/trillek-sim/corebox/config"
	"github.com/trillek-sim/corebox/log"
	"github.com/trillek-sim/corebox/metrics"
	"github.com/trillek-sim/corebox/scheduler"
	"github.com/trillek-sim/corebox/store"
	"github.com/trillek-sim/corebox/transport"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to a TOML configuration file",
	}
	listenFlag = &cli.StringFlag{
		Name:  "listen",
		Usage: "override the configured listen address",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "trace, debug, info, warn, error, or crit",
	}
)

func main() {
	app := &cli.App{
		Name:  "simd",
		Usage: "run the simulation server",
		Flags: []cli.Flag{configFlag, listenFlag, logLevelFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if addr := c.String("listen"); addr != "" {
		cfg.Listen.Address = addr
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	logger := buildLogger(cfg.Log)
	log.SetRoot(logger)

	registry := metrics.NewRegistry()
	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Address, registry, logger)
	}

	st := store.New(cfg.Store.HistoryDepth, registry.StoreMetrics())
	logger.Info("simd: component store ready", "history_depth", cfg.Store.HistoryDepth)

	// Concrete systems (movement, physics, AI) bind to st and are
	// handed to scheduler.New; none ship with this core, so every
	// worker of this pool runs unbound.
	pool := scheduler.New(cfg.Scheduler.Workers, int64(cfg.Scheduler.MaxConcurrentThread), nil, logger)
	_ = st

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	pub, priv, err := transport.GenerateServerKeyPair()
	if err != nil {
		return fmt.Errorf("simd: generating server key pair: %w", err)
	}
	logger.Info("simd: server public key, pin this in clients' --server-pubkey", "pubkey", hex.EncodeToString(pub))
	creds := transport.NewCredentialStore()
	dispatcher := transport.NewDispatcher(pool)
	transport.NewServerSession(dispatcher, creds, pub, priv, logger)

	ln, err := net.Listen("tcp", cfg.Listen.Address)
	if err != nil {
		return fmt.Errorf("simd: listen on %s: %w", cfg.Listen.Address, err)
	}
	logger.Info("simd: listening", "address", cfg.Listen.Address)

	listener := transport.NewListener(ln, dispatcher, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("simd: shutting down")
		cancel()
	}()

	return listener.Serve(ctx)
}

func buildLogger(cfg config.LogConfig) *log.Logger {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		level = log.LevelInfo
	}

	var out *os.File = os.Stderr
	var handler = log.NewTerminalHandlerWithLevel(out, level)
	if cfg.JSON {
		handler = log.JSONHandler(out)
	}
	if cfg.File != "" {
		writer := log.RotatingWriter(cfg.File, 100, 5, 28)
		handler = log.NewTerminalHandlerWithLevel(writer, level)
		if cfg.JSON {
			handler = log.JSONHandler(writer)
		}
	}
	glog := log.NewGlogHandler(handler)
	glog.Verbosity(level)
	return log.New(glog)
}

func parseLevel(s string) (log.Level, error) {
	switch s {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info", "":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return log.LevelInfo, fmt.Errorf("simd: unknown log level %q", s)
	}
}

func serveMetrics(addr string, registry *metrics.Registry, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	logger.Info("simd: serving metrics", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("simd: metrics server failed", "err", err)
	}
}
