package main

import (
	"fmt"
	"os"

	"github.com/shoppos/backend/internal/infrastructure/config"
	"github.com/shoppos/backend/internal/infrastructure/logger"
	"github.com/shoppos/backend/internal/interfaces/cli"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "eodctl: load configuration: %v\n", err)
		os.Exit(1)
	}
	// Logs go to stderr so command output stays pipeable
	log, err := logger.New(&logger.Config{Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "eodctl: init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if err := cli.NewRootCommand(cli.ConfigDeps(cfg, log), Version).Execute(); err != nil {
		os.Exit(1)
	}
}
