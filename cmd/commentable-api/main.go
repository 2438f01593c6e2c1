package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/commentable-dev/commentable/internal/config"
	"github.com/commentable-dev/commentable/internal/logger"
	"github.com/commentable-dev/commentable/internal/router"
	"github.com/commentable-dev/commentable/internal/setup"
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		logger.Log.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Cleanup()

	r := router.New(deps.Handler)

	httpPort := os.Getenv("PORT")
	if httpPort == "" {
		httpPort = fmt.Sprintf("%d", cfg.Public.Port)
	}

	logger.Log.Info("comment server listening", "port", httpPort, "engine", cfg.Public.StorageEngine)
	if err := http.ListenAndServe(":"+httpPort, r); err != nil {
		logger.Log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
