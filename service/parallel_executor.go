package service

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grailbio/base/log"
	"golang.org/x/sync/errgroup"

	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/internal/config"
)

// Executor defaults
const (
	DefaultMaxConcurrency = 4
	DefaultTimeout        = 10 * time.Minute
)

// TaskError is the failure of a single runfolder task
type TaskError struct {
	TaskName string
	Err      error
}

// Error implements the error interface
func (e TaskError) Error() string {
	return fmt.Sprintf("[%s] %v", e.TaskName, e.Err)
}

// Unwrap returns the underlying error
func (e TaskError) Unwrap() error {
	return e.Err
}

// AggregatedError collects all task failures, sorted by task name
type AggregatedError struct {
	Errors []TaskError
}

// Error implements the error interface
func (e *AggregatedError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d runfolders failed:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Unwrap exposes every task error to errors.Is and errors.As
func (e *AggregatedError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i := range e.Errors {
		errs[i] = e.Errors[i]
	}
	return errs
}

// ByTask maps task names to their error messages
func (e *AggregatedError) ByTask() map[string]string {
	out := make(map[string]string, len(e.Errors))
	for _, te := range e.Errors {
		out[te.TaskName] = te.Err.Error()
	}
	return out
}

// ParallelExecutorImpl runs runfolder checks with bounded concurrency
type ParallelExecutorImpl struct {
	maxConcurrency int
	timeout        time.Duration
	progress       domain.ProgressManager
	mu             sync.RWMutex
}

// NewParallelExecutor uses one worker per CPU
func NewParallelExecutor() *ParallelExecutorImpl {
	return &ParallelExecutorImpl{
		maxConcurrency: runtime.NumCPU(),
		timeout:        DefaultTimeout,
	}
}

// NewParallelExecutorFromConfig creates a parallel executor from configuration
func NewParallelExecutorFromConfig(cfg *config.PerformanceConfig) *ParallelExecutorImpl {
	maxConcurrency := cfg.MaxGoroutines
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &ParallelExecutorImpl{
		maxConcurrency: maxConcurrency,
		timeout:        timeout,
	}
}

// NewParallelExecutorWithProgress creates a parallel executor reporting to pm
func NewParallelExecutorWithProgress(cfg *config.PerformanceConfig, pm domain.ProgressManager) *ParallelExecutorImpl {
	executor := NewParallelExecutorFromConfig(cfg)
	executor.progress = pm
	return executor
}

// Execute runs every enabled task. A failing task does not stop the others;
// tasks not started before the deadline are recorded as failed.
func (e *ParallelExecutorImpl) Execute(ctx context.Context, tasks []domain.ExecutableTask) error {
	enabled := e.filterEnabledTasks(tasks)
	if len(enabled) == 0 {
		return nil
	}

	e.mu.RLock()
	maxConcurrency := e.maxConcurrency
	timeout := e.timeout
	e.mu.RUnlock()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var progress domain.TaskProgress = &NoOpTaskProgress{}
	if e.progress != nil {
		progress = e.progress.StartTask("Checking runfolders", len(enabled))
	}
	defer progress.Complete()

	g, gCtx := errgroup.WithContext(timeoutCtx)
	g.SetLimit(maxConcurrency)

	var errMu sync.Mutex
	var taskErrors []TaskError
	record := func(name string, err error) {
		errMu.Lock()
		taskErrors = append(taskErrors, TaskError{TaskName: name, Err: err})
		errMu.Unlock()
	}

	for _, t := range enabled {
		g.Go(func() error {
			defer progress.Increment(1)

			if err := gCtx.Err(); err != nil {
				record(t.Name(), err)
				return nil
			}

			progress.Describe(t.Name())
			if _, err := t.Execute(gCtx); err != nil {
				log.Debug.Printf("task %s failed: %v", t.Name(), err)
				record(t.Name(), err)
			}
			// failures are collected, never returned, so siblings keep running
			return nil
		})
	}
	_ = g.Wait()

	if len(taskErrors) == 0 {
		return nil
	}
	sort.Slice(taskErrors, func(i, j int) bool {
		return taskErrors[i].TaskName < taskErrors[j].TaskName
	})
	return &AggregatedError{Errors: taskErrors}
}

// SetMaxConcurrency sets the maximum number of concurrent tasks
func (e *ParallelExecutorImpl) SetMaxConcurrency(max int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if max > 0 {
		e.maxConcurrency = max
	}
}

// SetTimeout sets the deadline for the whole batch
func (e *ParallelExecutorImpl) SetTimeout(timeout time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if timeout > 0 {
		e.timeout = timeout
	}
}

func (e *ParallelExecutorImpl) filterEnabledTasks(tasks []domain.ExecutableTask) []domain.ExecutableTask {
	enabled := make([]domain.ExecutableTask, 0, len(tasks))
	for _, t := range tasks {
		if t.IsEnabled() {
			enabled = append(enabled, t)
		}
	}
	return enabled
}
