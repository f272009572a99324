package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/GoArmGo/ProtogenMap/internal/app"
	"github.com/GoArmGo/ProtogenMap/internal/di"
)

func main() {
	mode := flag.String("mode", app.ModeServer, "Режим запуска приложения: server или worker")
	flag.Parse()

	// bootstrap-логгер (используется только на этапе инициализации, пока нет основного)
	bootstrapLogger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	bootstrapLogger.Info("starting application", "mode", *mode)

	application, err := di.BuildApp()
	if err != nil {
		bootstrapLogger.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	log := application.LoggerIns()
	log.Info("application initialized successfully")

	if err := application.Run(context.Background(), *mode); err != nil {
		log.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
