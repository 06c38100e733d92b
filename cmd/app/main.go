package main

import (
	"flag"
	"log"
	"os"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/di"
	"github.com/OQueQuantFirm/Market-Analyzer/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// Load .env if present; real env vars still win
	_ = godotenv.Load()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := cfg.RequireCredentials(); err != nil {
		log.Fatalf("config: %v", err)
	}

	log.Printf("env=%s backend=%s instrument=%s", cfg.Environment, cfg.Backend.Type, cfg.Strategy.Instrument)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
