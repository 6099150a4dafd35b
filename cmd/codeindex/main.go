// # cmd/codeindex/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"codeindex/internal/core/config"
	"codeindex/internal/shared/observability"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	configPath = flag.String("config", "./codeindex.toml", "Path to config file")
	once       = flag.Bool("once", false, "Run initial scan, wait for the queue to drain, and exit")
	ui         = flag.Bool("ui", false, "Enable terminal UI mode")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("codeindex v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stdout
	if *ui {
		// In UI mode, avoid stdout logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
				if err == nil {
					output = f
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	shutdownTracing, err := observability.InitTracing(context.Background())
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./codeindex.toml" {
			cfg, err = config.Load("./codeindex.example.toml")
		}
		if err != nil {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	if flag.NArg() > 0 {
		cfg.WatchPaths = []string{flag.Arg(0)}
	}

	if !filepath.IsAbs(cfg.GrammarsPath) && cfg.GrammarsPath != "" {
		cwd, _ := os.Getwd()
		cfg.GrammarsPath = filepath.Join(cwd, cfg.GrammarsPath)
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.InitialScan(); err != nil {
		slog.Error("initial scan failed", "error", err)
		os.Exit(1)
	}

	if *once {
		app.Indexer.BlockUntilIdle(60 * time.Second)
		stats := app.Stats()
		slog.Info("indexing complete", "shards", stats.ShardCount, "symbols", stats.SymbolCount)
		os.Exit(0)
	}

	if *ui {
		m := initialModel(app)
		p := tea.NewProgram(m)
		if _, err := p.Run(); err != nil {
			slog.Error("failed to run UI", "error", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("watching for changes", "paths", cfg.WatchPaths)
	select {}
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "codeindex", "codeindex.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "codeindex", "codeindex.log")
	}

	return "codeindex.log"
}
