//go:build !windows

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shokofin/shokofin/internal/tasks"
)

// watchRunSignal runs the import task whenever SIGUSR1 arrives
func watchRunSignal(ctx context.Context, runner *taskRunner) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			runner.Start(taskKeyFor(tasks.SyncDirectionImport))
		}
	}
}

