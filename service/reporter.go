package service

import (
	"time"

	"github.com/grailbio/base/log"

	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/internal/checker"
	"github.com/ludo-technologies/seqgate/internal/config"
	"github.com/ludo-technologies/seqgate/internal/version"
)

// Evaluation is everything produced by evaluating one run
type Evaluation struct {
	ExitStatus int
	Bucket     string
	View       string
	Checkers   []domain.CheckerConfig
	Reports    []*domain.QCReport
	Output     domain.ViewOutput
}

// Reporter evaluates runs against a QC rule set. It holds no per-run state
// and is safe for concurrent use.
type Reporter struct {
	rules *config.QCConfig
}

// NewReporter creates a reporter for the given rules
func NewReporter(rules *config.QCConfig) *Reporter {
	return &Reporter{rules: rules}
}

// GatherReports evaluates data and returns the exit status and the rendered view
func (r *Reporter) GatherReports(data *domain.QCData, opts domain.GatherOptions) (int, domain.ViewOutput, error) {
	eval, err := r.Evaluate(data, opts)
	if err != nil {
		return domain.ExitOperationalError, nil, err
	}
	return eval.ExitStatus, eval.Output, nil
}

// Evaluate resolves the rule set of the run, validates every checker
// config, runs the checkers in order and renders the resolved view.
func (r *Reporter) Evaluate(data *domain.QCData, opts domain.GatherOptions) (*Evaluation, error) {
	if data == nil {
		return nil, domain.NewInvalidInputError("no QC data", nil)
	}

	res, err := r.rules.Resolve(data.Instrument, data.ReadLength, opts)
	if err != nil {
		return nil, err
	}
	log.Debug.Printf("%s read length %d: using rule set %s (%d checkers)",
		data.Instrument, data.ReadLength, res.Bucket, len(res.Checkers))

	view, err := LookupView(res.View)
	if err != nil {
		return nil, err
	}

	checkers := make([]checker.Checker, 0, len(res.Checkers))
	for _, cfg := range res.Checkers {
		c, ok := checker.Lookup(cfg.Name)
		if !ok {
			return nil, domain.NewCheckerConfigError(cfg.Name, "name", "unknown checker")
		}
		if err := c.Validate(cfg); err != nil {
			return nil, err
		}
		checkers = append(checkers, c)
	}

	var reports []*domain.QCReport
	for i, c := range checkers {
		found, err := c.Run(data, res.Checkers[i])
		if err != nil {
			return nil, err
		}
		reports = append(reports, found...)
	}

	return &Evaluation{
		ExitStatus: domain.ExitStatus(reports),
		Bucket:     res.Bucket,
		View:       res.View,
		Checkers:   res.Checkers,
		Reports:    reports,
		Output:     view(res.Checkers, data, reports),
	}, nil
}

// Check implements domain.QCService
func (r *Reporter) Check(data *domain.QCData, opts domain.GatherOptions) (*domain.CheckResult, error) {
	eval, err := r.Evaluate(data, opts)
	if err != nil {
		return nil, err
	}
	return &domain.CheckResult{
		ExitStatus:  eval.ExitStatus,
		Passed:      eval.ExitStatus == domain.ExitPass,
		View:        eval.View,
		Output:      eval.Output,
		Reports:     eval.Reports,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.GetVersion(),
	}, nil
}
