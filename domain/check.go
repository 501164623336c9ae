package domain

import (
	"context"
	"io"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatText OutputFormat = "text"
	OutputFormatHTML OutputFormat = "html"
)

// Exit codes of the CLI
const (
	ExitPass               = 0
	ExitQCFailed           = 1
	ExitOperationalError   = 2
	ExitConfigEntryMissing = 3
)

// GatherOptions tweak rule-set resolution for one run
type GatherOptions struct {
	// UseClosestReadLength falls back to the nearest read-length bucket
	UseClosestReadLength bool

	// DowngradeErrorsFor names checkers whose fatal cutoff becomes a warning cutoff
	DowngradeErrorsFor []string

	// View overrides the view named by the rule set
	View string
}

// CheckResult represents the result of QC gating one run
type CheckResult struct {
	// Source is the file or runfolder the QC data came from
	Source      string      `json:"source,omitempty" yaml:"source,omitempty"`
	ExitStatus  int         `json:"exit_status" yaml:"exit_status"`
	Passed      bool        `json:"passed" yaml:"passed"`
	View        string      `json:"view" yaml:"view"`
	Output      ViewOutput  `json:"output" yaml:"output"`
	Reports     []*QCReport `json:"-" yaml:"-"`
	Duration    int64       `json:"duration_ms" yaml:"duration_ms"`
	GeneratedAt string      `json:"generated_at" yaml:"generated_at"`
	Version     string      `json:"version" yaml:"version"`
}

// CheckRequest is the input to the check use case
type CheckRequest struct {
	DataPath        string
	SamplesheetPath string
	QCConfigPath    string
	Options         GatherOptions
	OutputFormat    OutputFormat
	OutputWriter    io.Writer
}

// QCDataLoader reads a QC data bundle produced by the upstream parsers
type QCDataLoader interface {
	Load(path string) (*QCData, error)

	// ApplySampleSheet replaces the samplesheet of data with a CSV samplesheet
	ApplySampleSheet(data *QCData, path string) error
}

// ProgressManager creates progress trackers for long running work
type ProgressManager interface {
	StartTask(description string, total int) TaskProgress
	IsInteractive() bool
	Close()
}

// TaskProgress tracks one unit of work
type TaskProgress interface {
	Increment(n int)
	Describe(description string)
	Complete()
}

// ExecutableTask is a unit of work for the parallel executor
type ExecutableTask interface {
	Name() string
	Execute(ctx context.Context) (interface{}, error)
	IsEnabled() bool
}

// ParallelExecutor runs tasks concurrently
type ParallelExecutor interface {
	Execute(ctx context.Context, tasks []ExecutableTask) error
}

// QCService evaluates one run against the QC rules
type QCService interface {
	Check(data *QCData, opts GatherOptions) (*CheckResult, error)
}

// OutputFormatter writes check results
type OutputFormatter interface {
	Write(result *CheckResult, format OutputFormat, writer io.Writer) error
}
