// Command web serves the read-only query surface over the gold tables.
package main

import (
	"context"
	"log/slog"
	"os"

	"retailetl/internal/app"
)

func main() {
	application, err := app.NewApplication(context.Background())
	if err != nil {
		slog.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		application.Logger.Error("application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
