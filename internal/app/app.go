package app

import (
	"context"
	"fmt"

	"reelgrab/internal/adapters/handlers"
	"reelgrab/internal/adapters/localstorage"
	"reelgrab/internal/adapters/opengraph"
	"reelgrab/internal/adapters/process"
	"reelgrab/internal/adapters/store"
	"reelgrab/internal/adapters/ytdlp"
	"reelgrab/internal/config"
	"reelgrab/internal/core/ports"
	"reelgrab/internal/service"
	"reelgrab/pkg/logger"
)

var log = logger.Get("App")

// App holds the wired components shared by the server and the CLI.
type App struct {
	Config       *config.Config
	Invoker      *ytdlp.Invoker
	Orchestrator *service.Orchestrator
	Storage      *localstorage.LocalStorage
	Store        store.Store
}

// New applies the logging level, prepares the artifact directories and
// connects every adapter described by cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.SetMinLoggingLevel(level)

	storage := localstorage.NewLocalStorage(cfg.Storage.DownloadsDir, cfg.Storage.AudiosDir)
	if err := storage.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare storage: %w", err)
	}

	runner := process.NewRunner(cfg.Extractor.ToolPathDirs...)
	log.Debugf("Extra PATH directories: %v\n", runner.PathDirs())

	invokerConfig := cfg.InvokerConfig()
	invoker := ytdlp.NewInvoker(runner, invokerConfig)

	var pages ports.PageScraper
	if cfg.Enrich.OpenGraph {
		pages = opengraph.NewClient(invokerConfig.Profile.UserAgent, cfg.Enrich.Timeout)
	}

	results, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	orchestrator := service.NewOrchestrator(invoker, storage, pages, service.Config{
		AudioFailureFatal: cfg.AudioFailureFatal,
	})

	return &App{
		Config:       cfg,
		Invoker:      invoker,
		Orchestrator: orchestrator,
		Storage:      storage,
		Store:        results,
	}, nil
}

// Gateway builds the HTTP gateway over the wired components.
func (a *App) Gateway() *handlers.Gateway {
	return handlers.NewGateway(&handlers.Config{
		HostAddr:     a.Config.ListenAddr(),
		DownloadsDir: a.Config.Storage.DownloadsDir,
		AudiosDir:    a.Config.Storage.AudiosDir,
		WebDir:       a.Config.WebDir,
	}, a.Orchestrator, a.Store, a.Invoker)
}

// Close releases the result store.
func (a *App) Close() error {
	return a.Store.Close()
}
