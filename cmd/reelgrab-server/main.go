package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"reelgrab/internal/app"
	"reelgrab/internal/config"
	"reelgrab/pkg/logger"
)

var log = logger.Get("Bootstrap")

func main() {
	// A missing .env is fine; the environment may already be populated
	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file found\n")
	}

	configPath := flag.String("config", "", "Path to an optional YAML configuration file")
	usage := flag.Bool("usage", false, "Print the supported environment variables and exit")
	flag.Parse()

	if *usage {
		fmt.Println(config.Usage())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Emit(logger.FATAL, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Emit(logger.FATAL, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if version, err := application.Invoker.Version(ctx); err != nil {
		log.Warnf("yt-dlp is not available yet: %v\n", err)
	} else {
		log.Infof("Using yt-dlp %s\n", version)
	}

	log.Emit(logger.NEW, "Starting reelgrab on %s\n", cfg.ListenAddr())
	if err := application.Gateway().Run(ctx); err != nil {
		log.Emit(logger.FATAL, "Server stopped: %v\n", err)
		application.Close()
		os.Exit(1)
	}

	log.Emit(logger.STOP, "Shutdown complete\n")
}
