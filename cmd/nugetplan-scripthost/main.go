// Package main implements the install script host used by nugetplan apply.
// It receives one script request via stdin and returns the outcome via
// stdout, so scripts never run inside the planner process.
//
// Usage:
//
//	nugetplan-scripthost [interpreter [args...]]
//
// The script file is passed as the last argument to the interpreter, or run
// directly when no interpreter is given.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/willibrandon/nugetplan/scripts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host := &scriptHost{interpreter: os.Args[1:], stderr: os.Stderr}
	if err := scripts.Serve(ctx, os.Stdin, os.Stdout, host); err != nil {
		stop()
		os.Exit(1)
	}
}
