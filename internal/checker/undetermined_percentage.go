package checker

import (
	"fmt"

	"github.com/ludo-technologies/seqgate/domain"
)

// UndeterminedPercentage checks the share of the lane yield that could not
// be assigned to a sample, corrected for the spiked-in PhiX.
const UndeterminedPercentage = "undetermined_percentage"

func checkUndeterminedPercentage(data *domain.QCData, cfg domain.CheckerConfig) ([]*domain.QCReport, error) {
	t, err := cfg.Thresholds(domain.LowerIsBetter)
	if err != nil {
		return nil, err
	}
	if t.Disabled() {
		return nil, nil
	}

	var reports []*domain.QCReport
	for _, lane := range data.Lanes() {
		metrics := data.SequencingMetrics[lane]
		if metrics.Yield == 0 {
			msg := fmt.Sprintf("Yield for lane %d was 0. No undetermined percentage could be computed.", lane)
			reports = append(reports, newReport(domain.SeverityError, UndeterminedPercentage, lane, "", msg, map[string]any{
				"percentage_undetermined": nil,
			}))
			continue
		}

		phix := metrics.MeanPercentPhixAligned()
		raw := float64(metrics.YieldUndetermined) / float64(metrics.Yield) * 100
		corrected := raw - phix

		severity, threshold, failed := t.Classify(corrected, domain.LowerIsBetter)
		if !failed {
			continue
		}
		msg := fmt.Sprintf("Percentage of undetermined indices (corrected for %.2f%% phiX) %.2f%% > %.2f%% on lane %d.",
			phix, corrected, threshold.Value(), lane)
		reports = append(reports, newReport(severity, UndeterminedPercentage, lane, "", msg, map[string]any{
			"percentage_undetermined":     corrected,
			"raw_percentage_undetermined": raw,
			"mean_percent_phix_aligned":   phix,
			domain.DataKeyThreshold:       threshold.Value(),
		}))
	}
	return reports, nil
}
