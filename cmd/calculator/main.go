package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"decimal-calculator/internal/calculator"
	"decimal-calculator/internal/config"
	"decimal-calculator/internal/observability"
	"decimal-calculator/internal/repl"
	"decimal-calculator/internal/script"
	"decimal-calculator/internal/server"
	"decimal-calculator/internal/storage"
)

var version = "dev"

type options struct {
	configPath  string
	historyPath string
	noColor     bool
	version     bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("calculator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	fs.StringVar(&opts.configPath, "c", "", "shorthand for -config")
	fs.StringVar(&opts.historyPath, "history", "", "history file (overrides configuration)")
	fs.BoolVar(&opts.noColor, "no-color", false, "disable coloured output")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	if opts.version {
		fmt.Fprintln(stdout, "calculator", version)
		return 0
	}

	if err := loadDotEnv(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	if opts.noColor {
		cfg.Color = false
	}

	// SIGTERM ends the session; SIGINT only abandons the current command.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	// Logger
	if err := observability.InitLogger(cfg.LogLevel, cfg.LogPath()); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	defer observability.SyncLogger()

	// Tracing, metrics and log export
	shutdown, err := initTelemetry(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			observability.Logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	registry := calculator.NewRegistry()
	if cfg.PluginDir != "" {
		plugins, err := script.LoadDir(cfg.PluginDir, registry)
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 1
		}
		defer script.CloseAll(plugins)
		observability.Logger.Info("plugins loaded",
			zap.String("dir", cfg.PluginDir),
			zap.Int("count", len(plugins)),
		)
	}

	historyPath := cfg.HistoryPath()
	if opts.historyPath != "" {
		historyPath = opts.historyPath
	}
	store, err := storage.NewFileStore(historyPath)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	calc := calculator.New(
		calculator.WithStore(store),
		calculator.WithMaxHistorySize(cfg.MaxHistorySize),
		calculator.WithMaxInputValue(cfg.MaxInputValue),
	)
	calc.AddObserver(calculator.NewLoggingObserver(observability.Logger))
	calc.AddObserver(calculator.NewAutoSaveObserver(calc, cfg.AutoSave))
	calc.AddObserver(calculator.NewMetricsObserver(ctx, func() int { return len(calc.History()) }))

	if err := calc.LoadHistory(); err != nil {
		observability.Logger.Warn("could not load history",
			zap.String("path", store.Path()),
			zap.Error(err),
		)
	}

	// Diagnostics
	observability.SetBuildInfo(version)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := server.ServeDiagnostics(ctx, cfg.MetricsAddr); err != nil {
				observability.Logger.Error("diagnostics listener failed", zap.Error(err))
			}
		}()
	}

	observability.Logger.Info("calculator initialized",
		zap.String("version", version),
		zap.String("history", store.Path()),
		zap.Bool("auto_save", cfg.AutoSave),
	)

	session := repl.New(calc, registry, stdin, stdout,
		repl.WithPrecision(cfg.Precision),
		repl.WithColor(cfg.Color),
		repl.WithInterrupts(interrupts),
	)
	if err := session.Run(ctx); err != nil {
		observability.Logger.Error("session failed", zap.Error(err))
		fmt.Fprintln(stderr, "Fatal error:", err)
		return 1
	}
	return 0
}
