package service

import (
	"fmt"
	"sort"

	"github.com/maruel/natural"

	"github.com/ludo-technologies/seqgate/domain"
)

// OtherChecker is the bucket of reports that do not name their checker
const OtherChecker = "other"

var views = map[string]domain.View{
	domain.ViewIllumina: IlluminaView,
	domain.ViewBasic:    BasicView,
	domain.ViewFull:     FullView,
}

// LookupView returns the view registered under name
func LookupView(name string) (domain.View, error) {
	view, ok := views[name]
	if !ok {
		return nil, domain.NewConfigError(fmt.Sprintf("unknown view %q", name), nil)
	}
	return view, nil
}

// sortReports orders reports by ordering key, "2" before "10". Reports with
// equal keys keep the checker order.
func sortReports(reports []*domain.QCReport) []*domain.QCReport {
	sorted := make([]*domain.QCReport, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		return natural.Less(sorted[i].OrderingKey(), sorted[j].OrderingKey())
	})
	return sorted
}

// IlluminaView groups reports by lane and then by checker
func IlluminaView(configs []domain.CheckerConfig, data *domain.QCData, reports []*domain.QCReport) domain.ViewOutput {
	out := &domain.LaneGroupedOutput{
		LaneReports: make(map[int]map[string][]domain.ReportLine),
		RunSummary:  domain.NewRunSummary(data, configs),
	}

	for _, r := range sortReports(reports) {
		name := r.Checker()
		if name == "" {
			name = OtherChecker
		}
		lane, ok := r.Lane()
		if !ok {
			if out.OtherReports == nil {
				out.OtherReports = make(map[string][]domain.ReportLine)
			}
			out.OtherReports[name] = append(out.OtherReports[name], domain.NewReportLine(r))
			continue
		}
		if out.LaneReports[lane] == nil {
			out.LaneReports[lane] = make(map[string][]domain.ReportLine)
		}
		out.LaneReports[lane][name] = append(out.LaneReports[lane][name], domain.NewReportLine(r))
	}
	return out
}

// BasicView lists every report as a string
func BasicView(configs []domain.CheckerConfig, data *domain.QCData, reports []*domain.QCReport) domain.ViewOutput {
	sorted := sortReports(reports)
	out := &domain.FlatOutput{
		Reports:    make([]domain.ReportLine, 0, len(sorted)),
		RunSummary: domain.NewRunSummary(data, configs),
	}
	for _, r := range sorted {
		out.Reports = append(out.Reports, domain.NewReportLine(r))
	}
	return out
}

// FullView lists every report with its type and payload
func FullView(configs []domain.CheckerConfig, data *domain.QCData, reports []*domain.QCReport) domain.ViewOutput {
	return &domain.FullOutput{
		Reports:    sortReports(reports),
		RunSummary: domain.NewRunSummary(data, configs),
	}
}
