package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"attendance-backend/cmd/attendance-cli/commands"
	"attendance-backend/internal/components/telemetry"
	"attendance-backend/lib/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()

	otelProviders, err := telemetry.SetupFromEnv(ctx, "attendance-cli")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to set up telemetry", "err", err)
	}

	err = commands.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := otelProviders.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Warn("failed to flush telemetry", "err", shutdownErr)
	}

	if err != nil {
		os.Exit(1)
	}
}
