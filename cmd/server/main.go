package main

import (
	"os"

	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/handlers"
	"github.com/arnavshah/roster-api-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger.Init(cfg.LoggerConfig())

	r, err := handlers.Setup(cfg)
	if err != nil {
		logger.Error("could not start", "err", err)
		os.Exit(1)
	}

	logger.Info("server starting", "port", cfg.Port, "days", len(cfg.Days), "shifts", len(cfg.Shifts))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("could not run server", "err", err)
		os.Exit(1)
	}
}
