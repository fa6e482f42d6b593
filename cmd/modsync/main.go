// Package main provides the entry point for the modsync CLI.
package main

import (
	"context"
	"os"

	"github.com/git-pkgs/modsync/cmd/modsync/app"
)

// Populated at build time.
var version = "dev"

func main() {
	application, err := app.New(version)
	if err != nil {
		app.ExitOnError(err)
	}

	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	if err := application.Execute(ctx, os.Args[1:]); err != nil {
		app.ExitOnError(err)
	}
}
