package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ludo-technologies/seqgate/domain"
)

// CheckUseCase gates one run: load its QC data, evaluate it and write the view
type CheckUseCase struct {
	loader    domain.QCDataLoader
	service   domain.QCService
	formatter domain.OutputFormatter
}

// NewCheckUseCase creates a new check use case
func NewCheckUseCase(loader domain.QCDataLoader, service domain.QCService, formatter domain.OutputFormatter) *CheckUseCase {
	return &CheckUseCase{
		loader:    loader,
		service:   service,
		formatter: formatter,
	}
}

// Execute performs the complete check workflow. The result is written to
// req.OutputWriter when one is set.
func (uc *CheckUseCase) Execute(ctx context.Context, req domain.CheckRequest) (*domain.CheckResult, error) {
	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	result, err := uc.Evaluate(ctx, req.DataPath, req.SamplesheetPath, req.Options)
	if err != nil {
		return nil, err
	}

	if req.OutputWriter != nil {
		if err := uc.formatter.Write(result, req.OutputFormat, req.OutputWriter); err != nil {
			return nil, domain.NewOutputError("failed to write QC report", err)
		}
	}
	return result, nil
}

// Evaluate loads and checks one run without writing anything
func (uc *CheckUseCase) Evaluate(ctx context.Context, dataPath, samplesheetPath string, opts domain.GatherOptions) (*domain.CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	data, err := uc.loader.Load(dataPath)
	if err != nil {
		return nil, err
	}
	if samplesheetPath != "" {
		if err := uc.loader.ApplySampleSheet(data, samplesheetPath); err != nil {
			return nil, err
		}
	}

	result, err := uc.service.Check(data, opts)
	if err != nil {
		return nil, err
	}
	result.Source = dataPath
	result.Duration = time.Since(start).Milliseconds()
	return result, nil
}

func (uc *CheckUseCase) validateRequest(req domain.CheckRequest) error {
	if req.DataPath == "" {
		return fmt.Errorf("no QC data path specified")
	}
	if req.OutputWriter != nil && req.OutputFormat == "" {
		return fmt.Errorf("output format is required when writing output")
	}
	return nil
}

// ExitStatusFor maps an error of the check workflow to the process exit status
func ExitStatusFor(err error) int {
	switch {
	case err == nil:
		return domain.ExitPass
	case errors.Is(err, domain.ErrConfigEntryMissing):
		return domain.ExitConfigEntryMissing
	default:
		return domain.ExitOperationalError
	}
}

// CheckUseCaseBuilder provides a builder pattern for creating CheckUseCase
type CheckUseCaseBuilder struct {
	loader    domain.QCDataLoader
	service   domain.QCService
	formatter domain.OutputFormatter
}

// NewCheckUseCaseBuilder creates a new builder
func NewCheckUseCaseBuilder() *CheckUseCaseBuilder {
	return &CheckUseCaseBuilder{}
}

// WithLoader sets the QC data loader
func (b *CheckUseCaseBuilder) WithLoader(loader domain.QCDataLoader) *CheckUseCaseBuilder {
	b.loader = loader
	return b
}

// WithService sets the QC service
func (b *CheckUseCaseBuilder) WithService(service domain.QCService) *CheckUseCaseBuilder {
	b.service = service
	return b
}

// WithFormatter sets the output formatter
func (b *CheckUseCaseBuilder) WithFormatter(formatter domain.OutputFormatter) *CheckUseCaseBuilder {
	b.formatter = formatter
	return b
}

// Build creates the CheckUseCase with the configured dependencies
func (b *CheckUseCaseBuilder) Build() (*CheckUseCase, error) {
	if b.loader == nil {
		return nil, fmt.Errorf("QC data loader is required")
	}
	if b.service == nil {
		return nil, fmt.Errorf("QC service is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}
	return NewCheckUseCase(b.loader, b.service, b.formatter), nil
}
