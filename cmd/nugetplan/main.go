package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/willibrandon/nugetplan/cmd/nugetplan/cli"
	"github.com/willibrandon/nugetplan/cmd/nugetplan/commands"
)

// Version information (set via ldflags during build)
var (
	version = "0.0.0-dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date
	cli.BuiltBy = builtBy

	cli.SetupVersion()

	cli.AddCommand(commands.NewVersionCommand(cli.Console))
	cli.AddCommand(commands.NewPlanCommand(cli.Console))
	cli.AddCommand(commands.NewApplyCommand(cli.Console))
	cli.AddCommand(commands.NewRedirectsCommand(cli.Console))

	// Cancellation stops apply between actions, so the action in flight
	// finishes or is compensated before exit.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	stop()

	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if interrupted {
			os.Exit(130) // 128 + SIGINT
		}
		os.Exit(1)
	}
}
