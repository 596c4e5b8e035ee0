// Command schedulerd is the daemon entrypoint: it wires structured logging
// and hands off to bootstrap.Run.
package main

import (
	"log/slog"
	"os"

	"github.com/jeanlucthumm/reddit-scheduler/internal/bootstrap"
	"github.com/jeanlucthumm/reddit-scheduler/internal/logging"
)

func main() {
	// config.Load hasn't run yet at this point (it needs a logger to report
	// its own failures), so the logging knobs are read directly from the
	// environment here, same as the rest of spec.md §6's env var overlay.
	logger := logging.New(
		os.Getenv("ENV") == "production",
		getEnvAsBool("DEBUG", false),
		getEnvAsBool("LOG_STDOUT", false),
	)
	slog.SetDefault(logger)

	if err := bootstrap.Run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func getEnvAsBool(key string, defaultValue bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return v == "1" || v == "true" || v == "TRUE" || v == "True"
}
