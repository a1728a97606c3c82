package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	baseURL := flag.String("base-url", "", "Portal base URL (overrides config)")
	debug := flag.Bool("debug", false, "Enable detailed debug logging")
	headless := flag.Bool("headless", false, "Run the browser without a window")
	maxAttempts := flag.Int("max-attempts", -1, "Cap submit attempts per order (0 = retry until accepted)")
	flag.Parse()

	if err := InitLocale(); err != nil {
		log.Printf("Warning: Locale initialization failed, using message keys: %v", err)
	}

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *baseURL != "" {
		config.BaseURL = *baseURL
	}
	if *debug {
		config.DebugMode = true
	}
	if *headless {
		config.Headless = true
	}
	if *maxAttempts >= 0 {
		config.Submit.MaxAttempts = *maxAttempts
	}

	logger := NewLogger(config.DebugMode)

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║            RobotSpareBin Robot Order Assistant            ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Portal: %s (%s)\n", config.BaseURL, config.Environment)
	fmt.Printf("Receipts: %s -> %s\n", config.ReceiptsDir, config.ArchivePath)
	fmt.Printf("Run ID: %s\n", logger.RunID())
	if config.Submit.MaxAttempts == 0 && config.Submit.MaxDurationSeconds == 0 {
		fmt.Println("🔁 Rejected submissions are retried until the portal accepts them")
	}
	if config.DebugMode {
		fmt.Println("🔍 DEBUG MODE - Detailed logging enabled")
	}

	ctx := context.Background()

	runner := NewRunner(config, logger, NewBrowser(config, logger))

	publisher, err := NewS3Publisher(ctx, config.Publish)
	if err != nil {
		log.Fatalf("Failed to set up archive publishing: %v", err)
	}
	if publisher != nil {
		runner.WithPublisher(publisher)
	}

	result, err := runner.Run(ctx)
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	fmt.Println()
	fmt.Printf("✓ %d orders placed, %d receipts archived in %s\n",
		len(result.Artifacts), len(result.Archived), result.ArchivePath)
}

func getUserDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./robotorder-data"
	}
	return filepath.Join(home, ".robotorder")
}
