package main

import (
	"log"
	"os"

	"github.com/you/glucopredict/internal/app"
	"github.com/you/glucopredict/internal/config"
	"github.com/you/glucopredict/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err := app.Run(cfg, logger); err != nil {
		logger.Error("app exited", "error", err)
		os.Exit(1)
	}
}
