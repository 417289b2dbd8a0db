package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/penwyp/dorkbox/cmd"
)

// main is the CLI entry point.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmd.Execute(ctx)
	stop()
	os.Exit(code)
}
