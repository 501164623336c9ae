package checker

import (
	"fmt"
	"math"

	"github.com/ludo-technologies/seqgate/domain"
)

// ClusterPF checks the clusters passing filter of every lane
const ClusterPF = "cluster_pf"

// thresholds are configured in millions of clusters
const clusterScale = 1e6

func checkClusterPF(data *domain.QCData, cfg domain.CheckerConfig) ([]*domain.QCReport, error) {
	t, err := cfg.Thresholds(domain.HigherIsBetter)
	if err != nil {
		return nil, err
	}
	if t.Disabled() {
		return nil, nil
	}
	t = domain.Thresholds{
		Error:   truncated(t.Error.Scaled(clusterScale)),
		Warning: truncated(t.Warning.Scaled(clusterScale)),
	}

	var reports []*domain.QCReport
	for _, lane := range data.Lanes() {
		clusters := data.SequencingMetrics[lane].TotalReadsPF
		severity, threshold, failed := t.Classify(float64(clusters), domain.HigherIsBetter)
		if !failed {
			continue
		}
		limit := int64(threshold.Value())
		msg := fmt.Sprintf("Clusters PF %sM < %sM on lane %d",
			formatFloat(float64(clusters)/clusterScale), formatFloat(float64(limit)/clusterScale), lane)
		reports = append(reports, newReport(severity, ClusterPF, lane, "", msg, map[string]any{
			"total_cluster_pf":      clusters,
			domain.DataKeyThreshold: limit,
		}))
	}
	return reports, nil
}

// truncated drops the fractional part of a scaled cluster count
func truncated(t domain.Threshold) domain.Threshold {
	if t.IsUnknown() {
		return t
	}
	return domain.At(math.Trunc(t.Value()))
}
