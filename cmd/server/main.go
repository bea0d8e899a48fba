package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/damacus/s3ducky/internal/config"
	"github.com/damacus/s3ducky/internal/handlers"
	"github.com/damacus/s3ducky/internal/logger"
	customMiddleware "github.com/damacus/s3ducky/internal/middleware"
	"github.com/damacus/s3ducky/internal/renderer"
	"github.com/damacus/s3ducky/internal/services"
	"github.com/damacus/s3ducky/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "listen",
			Usage: "HTTP listen address (overrides LISTEN_ADDR)",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Storage backend, mock or minio (overrides STORAGE_BACKEND)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (overrides LOG_LEVEL)",
		},
	}
}

func main() {
	app := &cli.App{
		Name:   "s3ducky",
		Usage:  "Browse and download files from an S3 bucket",
		Flags:  serveFlags(),
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the web server",
				Flags:  serveFlags(),
				Action: serve,
			},
			{
				Name:   "regions",
				Usage:  "Print the regions offered on the connect form",
				Action: listRegions,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyFlags(c, cfg); err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if len(cfg.SessionKey) != 32 {
		log.Warn().Msg("SESSION_KEY is not 32 bytes, using an ephemeral key; sessions end on restart")
	}

	registry := newRegistry(cfg, log)
	defer registry.Close()

	e := newServer(cfg, newStorageFactory(cfg), registry, log)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("backend", cfg.Backend).Msg("starting server")
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// applyFlags lets command-line flags override environment configuration
func applyFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("listen") {
		cfg.ListenAddr = c.String("listen")
	}
	if c.IsSet("backend") {
		cfg.Backend = strings.ToLower(c.String("backend"))
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func listRegions(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	for _, r := range cfg.Regions {
		fmt.Fprintf(c.App.Writer, "%-16s %s\n", r.Value, r.Label)
	}
	return nil
}

func newStorageFactory(cfg *config.Config) services.StorageFactory {
	if cfg.Backend == config.BackendMinio {
		return &services.MinioStorageFactory{
			Clients:  &services.RealMinioFactory{},
			Endpoint: cfg.MinioEndpoint,
		}
	}
	return &services.MockFactory{Delay: cfg.MockDelay}
}

func newRegistry(cfg *config.Config, log zerolog.Logger) *session.Registry {
	policy := session.Policy{
		Duration:      cfg.SessionDuration,
		Warning:       cfg.SessionWarning,
		CheckInterval: cfg.SessionCheckInterval,
	}
	return session.NewRegistry(policy, cfg.MaxSessions, session.WithExpireHook(func(id string) {
		log.Info().Str("session", id).Msg("session expired")
	}))
}

func newServer(cfg *config.Config, factory services.StorageFactory, registry *session.Registry, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Services
	authService := services.NewAuthService(cfg.SessionKey)
	browserService := services.NewBrowserService(factory, log)
	authHandler := handlers.NewAuthHandler(authService, browserService, registry, cfg.Regions, log)
	browserHandler := handlers.NewBrowserHandler(browserService, log)
	sessionHandler := handlers.NewSessionHandler(registry)

	// Middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := log.Debug()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				evt = log.Warn().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(customMiddleware.Metrics())
	e.Use(customMiddleware.SecurityHeaders())
	e.Use(customMiddleware.CSRF())
	// Apply session middleware globally - it will skip public routes internally
	e.Use(customMiddleware.SessionMiddleware(authService, registry))

	// Template Renderer
	e.Renderer = renderer.New()

	// Public Routes (session middleware will skip these)
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/", authHandler.ConnectPage)
	e.POST("/connect", authHandler.Connect)
	e.GET("/logout", authHandler.Logout)
	e.POST("/logout", authHandler.Logout)

	// Protected Routes
	e.GET("/browser", browserHandler.Browse)
	e.GET("/browser/files", browserHandler.Files)
	e.POST("/browser/refresh", browserHandler.Refresh)
	e.POST("/browser/toggle", browserHandler.Toggle)
	e.POST("/browser/select-all", browserHandler.SelectAll)
	e.POST("/browser/deselect-all", browserHandler.DeselectAll)
	e.GET("/browser/download", browserHandler.Download)
	e.GET("/browser/usage", browserHandler.Usage)
	e.GET("/session/status", sessionHandler.Status)

	return e
}
