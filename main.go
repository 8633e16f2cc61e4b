package main

import (
	"log"

	"taskboard/config"
	"taskboard/connection"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := config.InitLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := connection.StartServer(cfg, logger); err != nil {
		logger.Fatalw("server exited", "error", err)
	}
}
