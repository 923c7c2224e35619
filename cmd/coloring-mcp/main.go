package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/coloring-mcp/internal/app"
	"github.com/ironsheep/coloring-mcp/internal/classifier"
	"github.com/ironsheep/coloring-mcp/internal/config"
	"github.com/ironsheep/coloring-mcp/internal/logging"
	"github.com/ironsheep/coloring-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("coloring-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("coloring-mcp - MCP server for seasonal color analysis of portraits")
			fmt.Println()
			fmt.Println("Usage: coloring-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  COLORING_CONFIG=path         JSON configuration file")
			fmt.Println("  COLORING_LOG_LEVEL=debug     Log level (debug, info, warn, error)")
			fmt.Println("  REDIS_ADDR=host:port         Enable the Redis result cache")
			fmt.Println("  OLLAMA_URL=url               Enable vision face-box detection")
			fmt.Println("  OLLAMA_MODEL=name            Vision model to use")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr; stdout is for MCP protocol.
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Debug("starting coloring MCP server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	predictor := classifier.New(nil)
	analyzer, closeCache, err := app.Analyzer(setupCtx, cfg, predictor, logger)
	cancel()
	if err != nil {
		logger.Fatal("failed to initialize analysis", zap.Error(err))
	}
	defer closeCache()

	srv := server.New(analyzer, predictor, logger)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
