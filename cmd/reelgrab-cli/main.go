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
	"reelgrab/internal/core/domain"
	"reelgrab/internal/service"
	"reelgrab/pkg/logger"
)

var log = logger.Get("CLI")

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file found\n")
	}

	url := flag.String("url", "", "Instagram or TikTok URL to download")
	configPath := flag.String("config", "", "Path to an optional YAML configuration file")
	save := flag.Bool("save", true, "Record the result in the configured result store")
	flag.Parse()

	if *url == "" {
		fmt.Println("Usage: reelgrab-cli -url <video-url> [-config <path>] [-save=false]")
		fmt.Println("\nExample:")
		fmt.Println("  reelgrab-cli -url https://www.instagram.com/reel/C1a2b3c4d5e/")
		fmt.Println("  reelgrab-cli -url https://www.tiktok.com/@user/video/1234567890")
		os.Exit(1)
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
		log.Emit(logger.FATAL, "Failed to initialise: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	log.Infof("URL: %s\n", *url)
	log.Infof("Downloads: %s, audio: %s\n", cfg.Storage.DownloadsDir, cfg.Storage.AudiosDir)

	result, err := application.Orchestrator.Download(ctx, *url)
	if err != nil {
		kind := service.Classify(err)
		log.Errorf("Download failed (%s): %v\n", kind, err)
		fmt.Println(domain.UserMessage(kind))
		application.Close()
		os.Exit(1)
	}

	if *save {
		if _, err := application.Store.Save(ctx, *result); err != nil {
			log.Warnf("Failed to record result: %v\n", err)
		}
	}

	printSummary(result)
}

func printSummary(result *domain.DownloadResult) {
	fmt.Println("\n=== Download Summary ===")
	fmt.Printf("ID:           %s\n", result.ID)
	fmt.Printf("Platform:     %s\n", result.Platform)
	fmt.Printf("Title:        %s\n", orNone(result.Title))
	fmt.Printf("Video:        %s\n", result.VideoPath)
	fmt.Printf("Audio:        %s\n", orNone(result.AudioPath))
	fmt.Printf("Thumbnail:    %s\n", orNone(result.ThumbnailURL))
	fmt.Printf("Published:    %s\n", orNone(result.PublishedAt))
	fmt.Printf("Completed At: %s\n", result.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
