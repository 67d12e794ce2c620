// Package main is the API server executable.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/command"
)

func main() { os.Exit(run()) }

func run() int {
	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.RootCommand().ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
