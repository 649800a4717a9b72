// Package main is the entry point for the facetctl CLI.
//
// facetctl launches the servers of a cluster definition on Hetzner Cloud,
// waits for them to accept SSH, optionally bootstraps them and records the
// cluster in a manifest registry.
//
// For detailed usage information, run:
//
//	facetctl --help
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/facetctl/cmd/facetctl/commands"
	"github.com/imamik/facetctl/cmd/facetctl/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	code := handlers.ExitFailure
	var exitErr *handlers.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}
	os.Exit(code)
}
