package main

import (
	"flag"
	"fmt"
	"log"

	"MacroPipe/internal/di"
	"MacroPipe/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("macropipe: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Printf("env=%s scripts=%s interpreter=%s",
		cfg.Environment, cfg.Analytics.ScriptDir, cfg.Analytics.Interpreter)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	// Blocks until SIGINT or SIGTERM.
	return app.Run()
}
