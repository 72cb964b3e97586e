package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pionia-project/pionia/internal/app"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (defaults to pionia.yml)")
	flag.Parse()

	var opts []app.Option
	if *configFile != "" {
		opts = append(opts, app.WithConfigFile(*configFile))
	}

	application, err := app.New(opts...)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
