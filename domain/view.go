package domain

import (
	"encoding/json"
)

// View names
const (
	ViewIllumina = "illumina_view"
	ViewBasic    = "basic_view"
	ViewFull     = "full_view"
)

// DefaultView is used when a rule set does not name one
const DefaultView = ViewIllumina

// ViewNames lists the available views
func ViewNames() []string {
	return []string{ViewIllumina, ViewBasic, ViewFull}
}

// IsKnownView reports whether name is one of ViewNames
func IsKnownView(name string) bool {
	for _, v := range ViewNames() {
		if v == name {
			return true
		}
	}
	return false
}

// ReportLine is a stringified report that remembers its severity so text
// output can colour it. It serializes as a plain string.
type ReportLine struct {
	Text     string
	Severity Severity
}

// NewReportLine stringifies a report
func NewReportLine(r *QCReport) ReportLine {
	return ReportLine{Text: r.String(), Severity: r.Severity()}
}

// MarshalJSON writes the line as a JSON string
func (l ReportLine) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Text)
}

// MarshalYAML writes the line as a YAML string
func (l ReportLine) MarshalYAML() (interface{}, error) {
	return l.Text, nil
}

// ViewOutput is what a view renders; every view carries a run summary
type ViewOutput interface {
	Summary() RunSummary
	ReportCount() int
}

// View renders reports for one run
type View func(configs []CheckerConfig, data *QCData, reports []*QCReport) ViewOutput

// LaneGroupedOutput groups report lines by lane and then by checker.
// Reports without a lane end up in OtherReports, keyed by checker.
type LaneGroupedOutput struct {
	LaneReports  map[int]map[string][]ReportLine `json:"lane reports" yaml:"lane reports"`
	OtherReports map[string][]ReportLine         `json:"other reports,omitempty" yaml:"other reports,omitempty"`
	RunSummary   RunSummary                      `json:"run_summary" yaml:"run_summary"`
}

// Summary implements ViewOutput
func (o *LaneGroupedOutput) Summary() RunSummary { return o.RunSummary }

// ReportCount counts every leaf line
func (o *LaneGroupedOutput) ReportCount() int {
	n := 0
	for _, byChecker := range o.LaneReports {
		for _, lines := range byChecker {
			n += len(lines)
		}
	}
	for _, lines := range o.OtherReports {
		n += len(lines)
	}
	return n
}

// FlatOutput lists report lines in order
type FlatOutput struct {
	Reports    []ReportLine `json:"reports" yaml:"reports"`
	RunSummary RunSummary   `json:"run_summary" yaml:"run_summary"`
}

// Summary implements ViewOutput
func (o *FlatOutput) Summary() RunSummary { return o.RunSummary }

// ReportCount implements ViewOutput
func (o *FlatOutput) ReportCount() int { return len(o.Reports) }

// FullOutput lists serialized reports including type and data
type FullOutput struct {
	Reports    []*QCReport `json:"reports" yaml:"reports"`
	RunSummary RunSummary  `json:"run_summary" yaml:"run_summary"`
}

// Summary implements ViewOutput
func (o *FullOutput) Summary() RunSummary { return o.RunSummary }

// ReportCount implements ViewOutput
func (o *FullOutput) ReportCount() int { return len(o.Reports) }
