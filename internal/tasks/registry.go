package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shokofin/shokofin/internal/metrics"
)

// Task run outcomes
const (
	StatusIdle      = "Idle"
	StatusRunning   = "Running"
	StatusCompleted = "Completed"
	StatusFailed    = "Failed"
	StatusCanceled  = "Cancelled"
)

// ErrTaskNotFound is returned when no task is registered under a key
var ErrTaskNotFound = errors.New("task not found")

// ErrTaskRunning is returned when a task is started while it is still running
var ErrTaskRunning = errors.New("task is already running")

// TaskResult describes the most recent run of a task
type TaskResult struct {
	Key        string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
	Progress   float64
	Error      string
}

// Duration returns how long the run took, or has taken so far
func (r TaskResult) Duration() time.Duration {
	if r.StartedAt.IsZero() {
		return 0
	}
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Registry holds the registered tasks and runs them on demand
type Registry struct {
	mu      sync.RWMutex
	tasks   map[string]Task
	results map[string]*TaskResult
	logger  *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tasks:   make(map[string]Task),
		results: make(map[string]*TaskResult),
		logger:  logger,
	}
}

// Register adds a task to the registry
func (r *Registry) Register(task Task) error {
	if task == nil {
		return fmt.Errorf("cannot register nil task")
	}

	key := task.Key()
	if key == "" {
		return fmt.Errorf("task %q must have a key", task.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[key]; exists {
		return fmt.Errorf("task %s is already registered", key)
	}

	r.tasks[key] = task
	r.results[key] = &TaskResult{Key: key, Status: StatusIdle}
	return nil
}

// Get returns the task registered under key
func (r *Registry) Get(key string) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, key)
	}
	return task, nil
}

// List returns all tasks sorted by category, then name. Hidden tasks are
// left out unless includeHidden is set.
func (r *Registry) List(includeHidden bool) []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		if task.IsHidden() && !includeHidden {
			continue
		}
		list = append(list, task)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Category() != list[j].Category() {
			return list[i].Category() < list[j].Category()
		}
		return list[i].Name() < list[j].Name()
	})
	return list
}

// LastResult returns a copy of the most recent result for key
func (r *Registry) LastResult(key string) (TaskResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.results[key]
	if !ok {
		return TaskResult{}, false
	}
	return *result, true
}

// Run executes the task registered under key and waits for it. Progress
// updates are forwarded to progress when it is not nil. A run stopped by
// ctx is recorded as canceled rather than failed; the context error is
// still returned.
func (r *Registry) Run(ctx context.Context, key string, progress Progress) error {
	task, err := r.Get(key)
	if err != nil {
		return err
	}

	r.mu.Lock()
	result := r.results[key]
	if result.Status == StatusRunning {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskRunning, key)
	}
	start := time.Now()
	*result = TaskResult{Key: key, Status: StatusRunning, StartedAt: start}
	r.mu.Unlock()

	logLevel := slog.LevelDebug
	if task.IsLogged() {
		logLevel = slog.LevelInfo
	}
	r.logger.Log(ctx, logLevel, "task started", "task", task.Name(), "key", key)
	metrics.IncTaskStarted(key)

	reporter := ProgressFunc(func(percent float64) {
		r.mu.Lock()
		result.Progress = percent
		r.mu.Unlock()
		if progress != nil {
			progress.Report(percent)
		}
	})

	runErr := task.Execute(ctx, reporter)
	elapsed := time.Since(start)
	metrics.ObserveTaskDuration(key, elapsed)

	status := StatusCompleted
	switch {
	case runErr == nil:
		metrics.IncTaskCompleted(key)
		r.logger.Log(ctx, logLevel, "task completed", "task", task.Name(), "key", key, "duration", elapsed)
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		status = StatusCanceled
		metrics.IncTaskCanceled(key)
		r.logger.Log(ctx, logLevel, "task cancelled", "task", task.Name(), "key", key, "duration", elapsed)
	default:
		status = StatusFailed
		metrics.IncTaskFailed(key)
		r.logger.Error("task failed", "task", task.Name(), "key", key, "duration", elapsed, "error", runErr)
	}

	r.mu.Lock()
	result.Status = status
	result.FinishedAt = time.Now()
	if runErr != nil {
		result.Error = runErr.Error()
	}
	r.mu.Unlock()

	return runErr
}
