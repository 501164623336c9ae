package checker

import (
	"fmt"

	"github.com/ludo-technologies/seqgate/domain"
)

// ReadsPerSample checks that every sample got its share of the lane's reads.
// Thresholds are per lane budgets in millions of reads, split evenly across
// the samples on the lane.
const ReadsPerSample = "reads_per_sample"

func checkReadsPerSample(data *domain.QCData, cfg domain.CheckerConfig) ([]*domain.QCReport, error) {
	t, err := cfg.Thresholds(domain.HigherIsBetter)
	if err != nil {
		return nil, err
	}
	if t.Disabled() {
		return nil, nil
	}

	var reports []*domain.QCReport
	for _, lane := range data.Lanes() {
		samples := data.SequencingMetrics[lane].ReadsPerSample
		n := len(samples)
		if n == 0 {
			continue
		}
		laneT := domain.Thresholds{Error: perSample(t.Error, n), Warning: perSample(t.Warning, n)}

		for _, sample := range samples {
			sampleReads := float64(sample.ClusterCount) / 1e6
			severity, threshold, failed := laneT.Classify(sampleReads, domain.HigherIsBetter)
			if !failed {
				continue
			}
			msg := fmt.Sprintf("Number of reads for sample %s on lane %d were too low: %s M (threshold: %s M)",
				sample.SampleID, lane, formatFloat(sampleReads), formatFloat(threshold.Value()))
			reports = append(reports, newReport(severity, ReadsPerSample, lane, "", msg, map[string]any{
				domain.DataKeySampleID:  sample.SampleID,
				"number_of_samples":     n,
				"sample_reads":          sampleReads,
				domain.DataKeyThreshold: threshold.Value(),
			}))
		}
	}
	return reports, nil
}
