package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/calcmcp/calcmcp/internal/config"
	httpsvr "github.com/calcmcp/calcmcp/internal/http"
	mcpsvr "github.com/calcmcp/calcmcp/internal/mcp"
	"github.com/calcmcp/calcmcp/internal/telemetry"
)

var (
	version   = ""
	gitCommit = ""
	buildTime = ""
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Environ(), os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "calcmcp:", err)
		os.Exit(1)
	}
}

// run starts every configured transport and blocks until ctx is done or a
// transport fails. Logs always go to stderr so stdout stays protocol-only.
func run(ctx context.Context, args, environ []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("calcmcp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg, err := config.Parse(fs, args, environ)
	if err != nil {
		return err
	}

	logger, err := cfg.NewLogger(stderr)
	if err != nil {
		return err
	}
	logger.Info("starting calculator mcp server",
		"transports", cfg.Transports,
		"version", version,
		"git_commit", gitCommit,
	)

	shutdownTracing, err := telemetry.SetupTracing(ctx, mcpsvr.ServerName, mcpsvr.ServerVersion, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracer shutdown failed", "err", err)
		}
	}()

	var metrics *telemetry.Metrics
	if cfg.MetricsEnabled {
		metrics = telemetry.NewMetrics()
	}
	dispatcher := mcpsvr.NewDispatcher(logger, metrics)

	if cfg.Has(config.TransportStdio) {
		logger.Info("serving mcp over stdio")
		if err := dispatcher.ServeStream(ctx, stdin, stdout); err != nil {
			return err
		}
		logger.Info("stdio stream closed")
		return nil
	}

	return serveNetwork(ctx, cfg, dispatcher, metrics, logger)
}

func serveNetwork(ctx context.Context, cfg config.Config, dispatcher *mcpsvr.Dispatcher, metrics *telemetry.Metrics, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	type shutdowner interface {
		Shutdown(context.Context) error
	}
	var servers []shutdowner

	if cfg.Has(config.TransportHTTP) {
		httpServer := httpsvr.NewServer(cfg.HTTPAddr(), dispatcher, metrics, logger, httpsvr.BuildInfo{
			Version:   version,
			GitCommit: gitCommit,
			BuildTime: buildTime,
		})
		servers = append(servers, httpServer)
		g.Go(func() error {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	if cfg.Has(config.TransportTCP) {
		tcpServer := mcpsvr.NewServer(cfg.TCPAddr, dispatcher, logger)
		servers = append(servers, tcpServer)
		g.Go(func() error {
			if err := tcpServer.ListenAndServe(); err != nil {
				return fmt.Errorf("tcp server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "err", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
