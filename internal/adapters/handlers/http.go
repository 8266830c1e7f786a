package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"reelgrab/internal/core/domain"
	"reelgrab/internal/core/ports"
	"reelgrab/pkg/logger"
)

var log = logger.Get("API")

const shutdownTimeout = 10 * time.Second

type (
	// Config carries the listen address and the directories served as static
	// files.
	Config struct {
		HostAddr     string
		DownloadsDir string
		AudiosDir    string
		WebDir       string
	}

	// Downloader runs a complete download for a URL.
	Downloader interface {
		Download(ctx context.Context, url string) (*domain.DownloadResult, error)
	}

	// HealthChecker reports the version of the external extractor.
	HealthChecker interface {
		Version(ctx context.Context) (string, error)
	}

	// Gateway is a thin wrapper around the echo router. It owns the routes,
	// error mapping and static file serving; all download work is delegated.
	Gateway struct {
		config *Config
		ec     *echo.Echo
	}
)

// NewGateway constructs the echo router and registers every route.
func NewGateway(config *Config, downloader Downloader, store ports.ResultStore, health HealthChecker) *Gateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true
	ec.HTTPErrorHandler = handleError

	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())
	ec.Use(middleware.CORS())

	api := ec.Group("/api")
	newDownloadsController(validator.New(), downloader, store).SetRoutes(api)
	newHealthController(health).SetRoutes(api)

	ec.Static("/files/videos", config.DownloadsDir)
	ec.Static("/files/audios", config.AudiosDir)
	if config.WebDir != "" {
		ec.Static("/", config.WebDir)
	}

	return &Gateway{config: config, ec: ec}
}

// ServeHTTP lets the gateway be mounted or exercised directly.
func (gateway *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gateway.ec.ServeHTTP(w, r)
}

// Run starts the HTTP server and blocks until parentCtx is cancelled or the
// server fails. In-flight requests are given time to complete on shutdown.
func (gateway *Gateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Emit(logger.INFO, "Listening on %s\n", gateway.config.HostAddr)
		if err := gateway.ec.Start(gateway.config.HostAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ctxCancel(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := gateway.ec.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Graceful shutdown failed: %v\n", err)
		gateway.ec.Close()
	}
	wg.Wait()

	// Parent cancellation is a normal stop, not an error.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}
