package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/shokofin/shokofin/internal/tasks"
)

// taskRunner starts registry tasks in the background and keeps track of the
// ones still running so shutdown can wait for them
type taskRunner struct {
	ctx      context.Context
	registry *tasks.Registry
	wg       sync.WaitGroup
}

func newTaskRunner(ctx context.Context, registry *tasks.Registry) *taskRunner {
	return &taskRunner{ctx: ctx, registry: registry}
}

// Start runs key in a new goroutine
func (r *taskRunner) Start(key string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		err := r.registry.Run(r.ctx, key, nil)
		if errors.Is(err, tasks.ErrTaskRunning) && logger != nil {
			logger.Warn("task already running", "key", key)
		}
	}()
}

// Wait blocks until every started task has returned or ctx is done
func (r *taskRunner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// taskTriggerHandler starts a task in the background on POST /tasks/<key>/run
func taskTriggerHandler(runner *taskRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		key, ok := strings.CutSuffix(strings.TrimPrefix(r.URL.Path, "/tasks/"), "/run")
		if !ok || key == "" {
			http.NotFound(w, r)
			return
		}
		if _, err := runner.registry.Get(key); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if result, _ := runner.registry.LastResult(key); result.Status == tasks.StatusRunning {
			http.Error(w, tasks.ErrTaskRunning.Error(), http.StatusConflict)
			return
		}

		runner.Start(key)
		w.WriteHeader(http.StatusAccepted)
	}
}
