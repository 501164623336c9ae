// Package checker holds the QC checkers and the registry that maps checker
// names to them. Checkers are pure functions over an already loaded run.
package checker

import (
	"strconv"

	"github.com/ludo-technologies/seqgate/domain"
)

// Func evaluates one QC dimension of a run
type Func func(data *domain.QCData, cfg domain.CheckerConfig) ([]*domain.QCReport, error)

// Param describes a configuration parameter a checker understands
type Param struct {
	Name     string
	Required bool
}

// Checker is a registry entry
type Checker struct {
	Name        string
	Description string

	// Direction is empty for checkers that are not driven by an error/warning pair
	Direction domain.Direction
	Params    []Param

	run      Func
	validate func(cfg domain.CheckerConfig) error
}

// Run evaluates the checker against data
func (c Checker) Run(data *domain.QCData, cfg domain.CheckerConfig) ([]*domain.QCReport, error) {
	if data == nil {
		return nil, nil
	}
	return c.run(data, cfg)
}

// Validate checks cfg without touching any metrics
func (c Checker) Validate(cfg domain.CheckerConfig) error {
	if c.validate != nil {
		return c.validate(cfg)
	}
	if c.Direction == "" {
		return nil
	}
	_, err := cfg.Thresholds(c.Direction)
	return err
}

// RequiredParams returns the names of the mandatory parameters
func (c Checker) RequiredParams() []string {
	var names []string
	for _, p := range c.Params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

var thresholdParams = []Param{
	{Name: domain.ParamErrorThreshold, Required: true},
	{Name: domain.ParamWarningThreshold, Required: true},
}

// laneKey is the ordering key of lane scoped reports
func laneKey(lane int) string {
	return strconv.Itoa(lane)
}

// newReport stamps the checker name and lane into the payload
func newReport(severity domain.Severity, checker string, lane int, key, message string, data map[string]any) *domain.QCReport {
	if data == nil {
		data = make(map[string]any, 2)
	}
	data[domain.DataKeyChecker] = checker
	data[domain.DataKeyLane] = lane
	if key == "" {
		key = laneKey(lane)
	}
	return domain.NewQCReport(severity, message, key, data)
}

// perSample splits a lane budget evenly across n samples
func perSample(t domain.Threshold, n int) domain.Threshold {
	if t.IsUnknown() || n == 0 {
		return t
	}
	return domain.At(t.Value() / float64(n))
}
