// Package main is the entry point for the scene viewer.
package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/app"
	"github.com/Faultbox/scenery/internal/config"
	"github.com/Faultbox/scenery/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run returns the exit status so deferred cleanup runs before the process
// exits.
func run(args []string, stderr io.Writer) int {
	if err := config.ParseArgs(args); err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Config error: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("=== Scenery ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	a, err := app.New(cfg)
	if err != nil {
		// Shader and import failures end up here; print them where a user
		// without a log file will see them.
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		logger.Error("failed to start viewer", zap.Error(err))
		return 1
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		logger.Error("viewer error", zap.Error(err))
		return 1
	}

	logger.Info("viewer closed normally")
	return 0
}
