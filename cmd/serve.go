package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/calsync/internal/api"
	"github.com/teemow/calsync/internal/cache"
	"github.com/teemow/calsync/internal/calendar"
	"github.com/teemow/calsync/internal/calendars"
	"github.com/teemow/calsync/internal/conferencing"
	"github.com/teemow/calsync/internal/events"
	"github.com/teemow/calsync/internal/google"
	"github.com/teemow/calsync/internal/instrumentation"
	"github.com/teemow/calsync/internal/locations"
	"github.com/teemow/calsync/internal/logging"
	"github.com/teemow/calsync/internal/meet"
	"github.com/teemow/calsync/internal/server"
	"github.com/teemow/calsync/internal/store"
	"github.com/teemow/calsync/internal/tools/calendar_tools"
	"github.com/teemow/calsync/internal/tools/meet_tools"
)

// Transports supported by serve.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

const shutdownTimeout = 30 * time.Second

type serveFlags struct {
	transport        string
	addr             string
	logLevel         string
	logFormat        string
	storeDriver      string
	storeDSN         string
	cacheBackend     string
	google           bool
	meet             bool
	standalone       bool
	yolo             bool
	disableStreaming bool
	toolGroups       []string
	rateLimit        float64
	metricsEnabled   bool
	metricsAddr      string
}

func newServeCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the calsync server",
		Long: `Start the calsync server. It serves the REST API under /api, the
Model Context Protocol endpoint at /mcp and the health probes on one
listener.

Supported transports:
  - http: REST, MCP (streamable HTTP) and health endpoints (default)
  - stdio: MCP over standard input/output only

Safety Mode:
  By default the MCP surface is read-only. Use --yolo to register the
  tools that create, update or delete calendars, events, locations and
  conferences. The REST API is not affected.

Configuration is read from the environment (and a .env file in the
working directory). Flags override the environment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			applyServeFlags(cmd, f, &cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if f.transport != TransportHTTP && f.transport != TransportStdio {
				return fmt.Errorf("unsupported transport %q, must be one of: http, stdio", f.transport)
			}
			return runServe(cfg, f.transport)
		},
	}

	cmd.Flags().StringVar(&f.transport, "transport", TransportHTTP, "Transport type: http or stdio")
	cmd.Flags().StringVar(&f.addr, "http-addr", server.DefaultHTTPAddr, "HTTP listen address (env: HTTP_ADDR)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error (env: LOG_LEVEL)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", logging.FormatText, "Log format: text or json (env: LOG_FORMAT)")
	cmd.Flags().StringVar(&f.storeDriver, "store", StoreSQLite, "Store driver: memory or sqlite (env: STORE_DRIVER)")
	cmd.Flags().StringVar(&f.storeDSN, "store-dsn", defaultSQLiteDSN, "SQLite database path (env: STORE_DSN)")
	cmd.Flags().StringVar(&f.cacheBackend, "cache", CacheMemory, "Cache backend: none, memory or valkey (env: CACHE_BACKEND)")
	cmd.Flags().BoolVar(&f.google, "google-calendar", false, "Sync events to Google Calendar (env: GOOGLE_CALENDAR_ENABLED)")
	cmd.Flags().BoolVar(&f.meet, "meet-lookup", false, "Enrich Meet join info from the Meet API (env: MEET_LOOKUP_ENABLED)")
	cmd.Flags().BoolVar(&f.standalone, "standalone-meetings", false, "Enable the standalone meeting provider (env: STANDALONE_MEETING_ENABLED)")
	cmd.Flags().BoolVar(&f.yolo, "yolo", false, "Register MCP write tools. Default is read-only (env: MCP_YOLO)")
	cmd.Flags().BoolVar(&f.disableStreaming, "disable-streaming", false, "Disable SSE streaming on the MCP endpoint (env: MCP_DISABLE_STREAMING)")
	cmd.Flags().StringSliceVar(&f.toolGroups, "tool-groups", []string{ToolGroupCalendar, ToolGroupMeet}, "MCP tool groups to register (env: MCP_TOOL_GROUPS)")
	cmd.Flags().Float64Var(&f.rateLimit, "rate-limit", defaultRateLimitRPS, "REST requests per second per client, 0 disables (env: RATE_LIMIT_RPS)")
	cmd.Flags().BoolVar(&f.metricsEnabled, "metrics", false, "Serve Prometheus metrics on a separate port (env: METRICS_ENABLED)")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics listen address (env: METRICS_ADDR)")

	return cmd
}

// applyServeFlags copies explicitly set flags over the environment config.
func applyServeFlags(cmd *cobra.Command, f serveFlags, cfg *Config) {
	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("http-addr", func() { cfg.HTTP.Addr = f.addr })
	set("log-level", func() { cfg.Log.Level = f.logLevel })
	set("log-format", func() { cfg.Log.Format = f.logFormat })
	set("store", func() { cfg.Store.Driver = f.storeDriver })
	set("store-dsn", func() { cfg.Store.DSN = f.storeDSN })
	set("cache", func() { cfg.Cache.Backend = f.cacheBackend })
	set("google-calendar", func() { cfg.Google.Enabled = f.google })
	set("meet-lookup", func() { cfg.Meet.Enabled = f.meet })
	set("standalone-meetings", func() { cfg.Standalone.Enabled = f.standalone })
	set("yolo", func() { cfg.MCP.Yolo = f.yolo })
	set("disable-streaming", func() { cfg.MCP.DisableStreaming = f.disableStreaming })
	set("tool-groups", func() { cfg.MCP.ToolGroups = f.toolGroups })
	set("rate-limit", func() { cfg.RateLimit.RPS = f.rateLimit })
	set("metrics", func() { cfg.Metrics.Enabled = f.metricsEnabled })
	set("metrics-addr", func() { cfg.Metrics.Addr = f.metricsAddr })
}

func newLogger(cfg LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	// stdout belongs to the stdio transport; logs always go to stderr.
	handler, err := logging.NewHandler(os.Stderr, cfg.Format, level)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

func runServe(cfg Config, transport string) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}
	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()
	metrics := provider.Metrics()

	services, err := buildServices(shutdownCtx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	sc, err := server.NewServerContext(shutdownCtx, services, logger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := sc.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.Err(err))
		}
	}()
	sc.SetMetrics(metrics)

	var mcpSrv *mcpserver.MCPServer
	if cfg.MCP.Enabled || transport == TransportStdio {
		mcpSrv = mcpserver.NewMCPServer("calsync", version,
			mcpserver.WithToolCapabilities(true),
		)
		readOnly := !cfg.MCP.Yolo
		if readOnly {
			logger.Info("MCP surface is read-only, use --yolo to enable write tools")
		}
		if err := registerAllTools(mcpSrv, sc, cfg.MCP.ToolGroups, readOnly); err != nil {
			return err
		}
	}

	if transport == TransportStdio {
		logger.Info("serving MCP over stdio")
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			return fmt.Errorf("stdio server error: %w", err)
		}
		return nil
	}

	return serveHTTP(shutdownCtx, cfg, sc, mcpSrv, provider)
}

// buildServices opens the store and cache and wires the providers into the
// calendar manager, the event orchestrator and the location service.
func buildServices(ctx context.Context, cfg Config, logger *slog.Logger, metrics *instrumentation.Metrics) (server.Services, error) {
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return server.Services{}, err
	}
	c, err := openCache(cfg.Cache, logger, metrics)
	if err != nil {
		_ = st.Close()
		return server.Services{}, err
	}

	deps := events.Deps{
		Store:   st,
		Cache:   c,
		Logger:  logger,
		Metrics: metrics,
	}

	if cfg.Google.Enabled {
		conf := cfg.Google.OAuth().Config()
		tokens := google.NewFileTokenProvider(cfg.Google.TokenDir)
		deps.Calendar = calendar.NewGoogle(
			calendar.NewServiceFactory(conf, tokens, cfg.Google.Timeout),
			cfg.Google.CalendarID, logger, metrics)

		var spaces conferencing.SpaceLookup
		if cfg.Meet.Enabled {
			spaces = meet.NewClient(meet.NewServiceFactory(conf, tokens, cfg.Google.Timeout), metrics)
		}
		deps.Native = conferencing.NewNativeProvider(spaces, logger)
		logger.Info("google calendar sync enabled",
			"calendar_id", cfg.Google.CalendarID,
			"meet_lookup", cfg.Meet.Enabled)
	} else {
		logger.Info("google calendar sync disabled, events are stored locally only")
	}

	if cfg.Standalone.Enabled {
		if err := cfg.Standalone.Validate(); err != nil {
			logger.Warn("standalone meeting provider is misconfigured, calls will fail", logging.Err(err))
		}
		deps.Standalone = conferencing.NewStandaloneProvider(cfg.Standalone.StandaloneConfig, nil, logger, metrics)
	}

	orchestrator := events.New(deps)
	return server.Services{
		Store:     st,
		Cache:     c,
		Calendars: calendars.NewManager(st, c, logger),
		Events:    orchestrator,
		Locations: locations.NewService(st, orchestrator, c, logger),
	}, nil
}

func openStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case StoreMemory:
		return store.NewMemory(), nil
	case StoreSQLite:
		st, err := store.OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// openCache returns nil for CacheNone, which disables caching.
func openCache(cfg CacheConfig, logger *slog.Logger, metrics *instrumentation.Metrics) (*cache.Cache, error) {
	var backend cache.Backend
	switch cfg.Backend {
	case CacheNone:
		return nil, nil
	case CacheMemory:
		backend = cache.NewMemoryBackend()
	case CacheValkey:
		vb, err := cache.NewValkeyBackend(cfg.Valkey)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to valkey: %w", err)
		}
		backend = vb
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
	return cache.New(backend,
		cache.WithPrefix(cfg.Prefix),
		cache.WithLogger(logging.NewSlogAdapter(logger)),
		cache.WithMetrics(metrics),
	), nil
}

// registerAllTools registers the requested tool groups on s.
func registerAllTools(s *mcpserver.MCPServer, sc *server.ServerContext, groups []string, readOnly bool) error {
	registrations := []struct {
		group    string
		register func(*mcpserver.MCPServer, *server.ServerContext, bool) error
	}{
		{ToolGroupCalendar, calendar_tools.RegisterCalendarTools},
		{ToolGroupMeet, meet_tools.RegisterMeetTools},
	}
	for _, r := range registrations {
		if !slices.Contains(groups, r.group) {
			continue
		}
		if err := r.register(s, sc, readOnly); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", r.group, err)
		}
	}
	return nil
}

func serveHTTP(ctx context.Context, cfg Config, sc *server.ServerContext, mcpSrv *mcpserver.MCPServer, provider *instrumentation.Provider) error {
	logger := sc.Logger()

	var limiter *api.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	router := api.NewRouter(api.Deps{
		Calendars: sc.Calendars(),
		Events:    sc.Events(),
		Locations: sc.Locations(),
		Logger:    logger,
		Metrics:   sc.Metrics(),
		Limiter:   limiter,
	})

	health := server.NewHealthChecker(sc)
	httpServer, err := server.NewHTTPServer(server.HTTPServerConfig{
		Addr:             cfg.HTTP.Addr,
		ReadTimeout:      cfg.HTTP.ReadTimeout,
		WriteTimeout:     cfg.HTTP.WriteTimeout,
		Router:           router,
		MCPServer:        mcpSrv,
		DisableStreaming: cfg.MCP.DisableStreaming,
		Health:           health,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled {
		if !provider.Enabled() {
			logger.Warn("metrics server requested but instrumentation is disabled")
		} else {
			metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
				Addr:                    cfg.Metrics.Addr,
				InstrumentationProvider: provider,
			})
			if err != nil {
				return fmt.Errorf("failed to create metrics server: %w", err)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpServer.Start)
	if metricsServer != nil {
		g.Go(metricsServer.Start)
	}
	g.Go(func() error {
		<-gctx.Done()
		health.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down HTTP server: %w", err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("error shutting down metrics server: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
