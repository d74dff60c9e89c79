//go:build windows

package main

import (
	"context"
)

// watchRunSignal is a no-op on Windows, use POST /tasks/<key>/run instead
func watchRunSignal(ctx context.Context, runner *taskRunner) {
	<-ctx.Done()
}
