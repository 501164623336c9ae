package checker

import (
	"fmt"
	"math"

	"github.com/ludo-technologies/seqgate/domain"
)

// ErrorRate checks the PhiX error rate of every read on every lane
const ErrorRate = "error_rate"

// ParamAllowMissingErrorRate skips reads with no error rate instead of failing them
const ParamAllowMissingErrorRate = "allow_missing_error_rate"

func validateErrorRate(cfg domain.CheckerConfig) error {
	if _, err := cfg.Thresholds(domain.LowerIsBetter); err != nil {
		return err
	}
	_, err := cfg.Bool(ParamAllowMissingErrorRate, false)
	return err
}

func checkErrorRate(data *domain.QCData, cfg domain.CheckerConfig) ([]*domain.QCReport, error) {
	t, err := cfg.Thresholds(domain.LowerIsBetter)
	if err != nil {
		return nil, err
	}
	allowMissing, err := cfg.Bool(ParamAllowMissingErrorRate, false)
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
			rate := metrics.Reads[read].MeanErrorRate
			payload := map[string]any{
				domain.DataKeyRead: read,
				"error":            jsonFloat(rate),
			}
			label := readLabel(metrics.Reads[read].IsIndex)

			if math.IsNaN(rate) || rate == 0 {
				if allowMissing {
					continue
				}
				msg := fmt.Sprintf("Error rate is %s on lane %d for %s %d. "+
					"This may be because no PhiX was loaded on this lane. "+
					"Use \"%s: true\" to disable this error message.",
					formatFloat(rate), lane, label, read, ParamAllowMissingErrorRate)
				reports = append(reports, newReport(domain.SeverityError, ErrorRate, lane, "", msg, payload))
				continue
			}

			severity, threshold, failed := t.Classify(rate, domain.LowerIsBetter)
			if !failed {
				continue
			}
			payload[domain.DataKeyThreshold] = threshold.Value()
			msg := fmt.Sprintf("Error rate %s > %s on lane %d for %s %d.",
				formatFloat(rate), formatFloat(threshold.Value()), lane, label, read)
			reports = append(reports, newReport(severity, ErrorRate, lane, "", msg, payload))
		}
	}
	return reports, nil
}

func readLabel(isIndex bool) string {
	if isIndex {
		return "read (I)"
	}
	return "read"
}
