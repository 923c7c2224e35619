package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/coloring-mcp/internal/app"
	"github.com/ironsheep/coloring-mcp/internal/classifier"
	"github.com/ironsheep/coloring-mcp/internal/config"
	"github.com/ironsheep/coloring-mcp/internal/httpapi"
	"github.com/ironsheep/coloring-mcp/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	predictor := classifier.New(nil)
	analyzer, closeCache, err := app.Analyzer(ctx, cfg, predictor, logger)
	if err != nil {
		logger.Fatal("failed to initialize analysis", zap.Error(err))
	}
	defer closeCache()

	var authMiddleware gin.HandlerFunc
	if cfg.HTTP.JWTSecret != "" {
		authMiddleware = httpapi.JWTMiddleware(cfg.HTTP.JWTSecret, cfg.HTTP.JWTAudience)
	} else {
		logger.Warn("JWT_SECRET not set, POST routes are unauthenticated")
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := httpapi.NewHandler(analyzer, predictor, cfg.HTTP.MaxUploadSize, logger)
	if cfg.Catalog.Enabled {
		repo, err := app.Catalog(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("failed to open catalog", zap.Error(err))
		}
		handler.WithLabels(repo)
		logger.Info("label review routes enabled")
	}
	router := httpapi.NewRouter(handler, authMiddleware)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("coloring API listening", zap.String("addr", cfg.HTTP.Addr))
	if err := serveHTTPServer(server, 15*time.Second, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

// serveHTTPServerWithOptions serves until the server fails or a signal
// arrives, then shuts down gracefully. A nil listener means ListenAndServe
// and a nil signalCh means SIGINT/SIGTERM.
func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	sigCh := signalCh
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
