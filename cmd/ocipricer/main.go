// Command ocipricer serves OCI list-price lookups as MCP tools over stdio,
// with an optional HTTP side for health, metrics, and streamable MCP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/opentariff/ocipricer/internal/catalog"
	"github.com/opentariff/ocipricer/internal/config"
	"github.com/opentariff/ocipricer/internal/health"
	"github.com/opentariff/ocipricer/internal/observe"
	"github.com/opentariff/ocipricer/internal/pricing"
	"github.com/opentariff/ocipricer/internal/tools"
)

const version = "0.3.0"

const serverInstructions = "Price lookups for Oracle Cloud Infrastructure SKUs. " +
	"Use pricing_get_sku when you know a part number and pricing_search_name " +
	"for free-form product names. Prices come from the public cetools subset; " +
	"missing entries are expected and are reported via the note field, never as " +
	"protocol errors."

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to the YAML configuration file (optional)")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ocipricer: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "ocipricer: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// Stdout belongs to the MCP stdio transport, so logs go to stderr.
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("ocipricer starting",
		"version", version,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"default_currency", cfg.Pricing.DefaultCurrency,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:      "ocipricer",
		ServiceVersion:   version,
		UpstreamEndpoint: cfg.Upstream.Endpoint,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics := observe.DefaultMetrics()

	// ── Catalogue client and pricing service ──────────────────────────────────
	var catOpts []catalog.Option
	if cfg.Upstream.TimeoutSeconds > 0 {
		catOpts = append(catOpts, catalog.WithTimeout(secondsToDuration(cfg.Upstream.TimeoutSeconds)))
	}
	if cfg.Upstream.Retries != nil {
		catOpts = append(catOpts, catalog.WithRetries(*cfg.Upstream.Retries))
	}
	if cfg.Upstream.BackoffSeconds > 0 {
		catOpts = append(catOpts, catalog.WithBackoff(secondsToDuration(cfg.Upstream.BackoffSeconds)))
	}
	catOpts = append(catOpts, catalog.WithMetrics(metrics))

	client, err := catalog.New(cfg.Upstream.Endpoint, catOpts...)
	if err != nil {
		slog.Error("failed to create catalogue client", "err", err)
		return 1
	}

	svc := pricing.NewService(client,
		pricing.WithDefaultCurrency(cfg.Pricing.DefaultCurrency),
		pricing.WithAltCurrency(cfg.Pricing.AltCurrency),
		pricing.WithDefaultMaxPages(cfg.Pricing.MaxPages),
		pricing.WithMetrics(metrics),
	)

	// ── MCP server ────────────────────────────────────────────────────────────
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "oci-pricing-mcp",
		Version: version,
	}, &mcp.ServerOptions{
		Instructions: serverInstructions,
	})
	tools.Register(server, svc, metrics)

	// ── Ops HTTP server (health, metrics, optional streamable MCP) ────────────
	g, gctx := errgroup.WithContext(ctx)

	var ops *http.Server
	if cfg.Server.ListenAddr != "" {
		mux := http.NewServeMux()
		health.New(health.Catalog(client, cfg.Pricing.DefaultCurrency)).Register(mux)
		mux.Handle("GET /metrics", promhttp.Handler())
		if cfg.Server.HTTPMCP {
			handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
				return server
			}, nil)
			mux.Handle("/mcp", handler)
		}

		ops = &http.Server{
			Addr:              cfg.Server.ListenAddr,
			Handler:           observe.Middleware(metrics)(mux),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			slog.Info("ops server listening", "addr", cfg.Server.ListenAddr, "http_mcp", cfg.Server.HTTPMCP)
			if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("ops server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		slog.Info("mcp server ready on stdio")
		if err := server.Run(gctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	})

	// Stop the ops server once the context is cancelled or a peer fails.
	g.Go(func() error {
		<-gctx.Done()
		if ops == nil {
			return nil
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return ops.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
