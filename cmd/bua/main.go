package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/solarops/bua/cmd"
)

const panicLogFile = "panic.log"

func main() {
	defer handlePanic()

	// Ctrl+C and SIGTERM cancel the command context for a graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// handlePanic writes the stack of an unrecovered panic to a log file before
// exiting, so crashes in headless runs leave a trace.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}

	report := fmt.Sprintf("panic at %s: %v\n\n%s\n",
		time.Now().UTC().Format(time.RFC3339), r, debug.Stack())
	if err := os.WriteFile(panicLogFile, []byte(report), 0o600); err != nil {
		fmt.Fprintln(os.Stderr, report)
	} else {
		fmt.Fprintf(os.Stderr, "panic: %v (stack written to %s)\n", r, panicLogFile)
	}
	os.Exit(2)
}
