package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/grailbio/base/log"

	"github.com/ludo-technologies/seqgate/domain"
)

// BatchRequest lists the roots to search for runfolders
type BatchRequest struct {
	Paths   []string
	Options domain.GatherOptions
}

// BatchResult holds the outcome of every runfolder found
type BatchResult struct {
	// ExitStatus is the highest exit status of any run
	ExitStatus int

	Runfolders []string
	Runs       map[string]*domain.CheckResult
	Errors     map[string]error
}

// ErrorMessages returns the run errors as strings
func (r *BatchResult) ErrorMessages() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for name, err := range r.Errors {
		out[name] = err.Error()
	}
	return out
}

// BatchUseCase gates every runfolder below a set of directories
type BatchUseCase struct {
	check    *CheckUseCase
	executor domain.ParallelExecutor
	files    *FileHelper
}

// NewBatchUseCase creates a new batch use case
func NewBatchUseCase(check *CheckUseCase, executor domain.ParallelExecutor, files *FileHelper) *BatchUseCase {
	return &BatchUseCase{
		check:    check,
		executor: executor,
		files:    files,
	}
}

// runTask checks one runfolder
type runTask struct {
	path  string
	opts  domain.GatherOptions
	check *CheckUseCase
	store func(string, *domain.CheckResult, error)
}

func (t *runTask) Name() string    { return t.path }
func (t *runTask) IsEnabled() bool { return true }

func (t *runTask) Execute(ctx context.Context) (interface{}, error) {
	result, err := t.check.Evaluate(ctx, t.path, "", t.opts)
	t.store(t.path, result, err)
	return result, err
}

// Execute discovers runfolders and evaluates them concurrently. A run that
// cannot be evaluated is recorded in Errors and does not stop the others.
func (uc *BatchUseCase) Execute(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if len(req.Paths) == 0 {
		return nil, domain.NewInvalidInputError("no directories specified", nil)
	}

	runfolders, err := uc.files.CollectRunfolders(req.Paths)
	if err != nil {
		return nil, domain.NewFileNotFoundError("failed to collect runfolders", err)
	}
	if len(runfolders) == 0 {
		return nil, domain.NewInvalidInputError("no QC data bundles found in the specified paths", nil)
	}
	log.Printf("checking %d runfolders", len(runfolders))

	result := &BatchResult{
		Runfolders: runfolders,
		Runs:       make(map[string]*domain.CheckResult, len(runfolders)),
		Errors:     make(map[string]error),
	}
	var mu sync.Mutex
	store := func(name string, r *domain.CheckResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			result.Errors[name] = err
			return
		}
		result.Runs[name] = r
	}

	tasks := make([]domain.ExecutableTask, 0, len(runfolders))
	for _, path := range runfolders {
		tasks = append(tasks, &runTask{path: path, opts: req.Options, check: uc.check, store: store})
	}

	if err := uc.executor.Execute(ctx, tasks); err != nil {
		log.Debug.Printf("batch finished with failures: %v", err)
	}
	for _, path := range runfolders {
		_, ran := result.Runs[path]
		_, failed := result.Errors[path]
		if !ran && !failed {
			// never started, the batch deadline passed first
			result.Errors[path] = fmt.Errorf("not checked: %w", firstNonNil(ctx.Err(), context.DeadlineExceeded))
		}
	}

	for _, r := range result.Runs {
		result.ExitStatus = max(result.ExitStatus, r.ExitStatus)
	}
	for _, e := range result.Errors {
		result.ExitStatus = max(result.ExitStatus, ExitStatusFor(e))
	}
	return result, nil
}

func firstNonNil(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
