// File: cmd/ecoestate/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/hverdane/ecoestate/cmd"
	"github.com/hverdane/ecoestate/internal/observability"
)

func main() {
	// Listen for interrupt signals so long-running commands shut down
	// gracefully.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
