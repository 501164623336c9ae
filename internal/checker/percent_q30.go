package checker

import (
	"fmt"
	"math"

	"github.com/ludo-technologies/seqgate/domain"
)

// PercentQ30 checks the share of bases at Q30 or above for every read
const PercentQ30 = "percent_q30"

func checkPercentQ30(data *domain.QCData, cfg domain.CheckerConfig) ([]*domain.QCReport, error) {
	t, err := cfg.Thresholds(domain.HigherIsBetter)
	if err != nil {
		return nil, err
	}
	if t.Disabled() {
		return nil, nil
	}

	var reports []*domain.QCReport
	for _, lane := range data.Lanes() {
		metrics := data.SequencingMetrics[lane]
		for _, read := range metrics.ReadNumbers() {
			rm := metrics.Reads[read]
			// a read without any quality data reports 0 or NaN
			if rm.PercentQ30 == 0 || math.IsNaN(rm.PercentQ30) {
				continue
			}
			severity, threshold, failed := t.Classify(rm.PercentQ30, domain.HigherIsBetter)
			if !failed {
				continue
			}
			msg := fmt.Sprintf("%%Q30 %s was too low on lane: %d for %s: %d",
				formatFloat(rm.PercentQ30), lane, readLabel(rm.IsIndex), read)
			reports = append(reports, newReport(severity, PercentQ30, lane, "", msg, map[string]any{
				domain.DataKeyRead:      read,
				"q30":                   jsonFloat(rm.PercentQ30),
				"is_index":              rm.IsIndex,
				domain.DataKeyThreshold: threshold.Value(),
			}))
		}
	}
	return reports, nil
}
