package checker

import (
	"fmt"

	"github.com/ludo-technologies/seqgate/domain"
)

// Yield checks the total base yield of every lane, thresholds are in Gbp
const Yield = "yield"

const yieldScale = 1e9

func checkYield(data *domain.QCData, cfg domain.CheckerConfig) ([]*domain.QCReport, error) {
	t, err := cfg.Thresholds(domain.HigherIsBetter)
	if err != nil {
		return nil, err
	}
	if t.Disabled() {
		return nil, nil
	}
	scaled := domain.Thresholds{Error: t.Error.Scaled(yieldScale), Warning: t.Warning.Scaled(yieldScale)}

	var reports []*domain.QCReport
	for _, lane := range data.Lanes() {
		laneYield := data.SequencingMetrics[lane].Yield
		severity, threshold, failed := scaled.Classify(float64(laneYield), domain.HigherIsBetter)
		if !failed {
			continue
		}
		gbp := threshold.Value() / yieldScale
		msg := fmt.Sprintf("Yield %s Gbp < %s Gbp on lane %d",
			formatFloat(float64(laneYield)/yieldScale), formatFloat(gbp), lane)
		reports = append(reports, newReport(severity, Yield, lane, "", msg, map[string]any{
			"yield":                 laneYield,
			domain.DataKeyThreshold: gbp,
		}))
	}
	return reports, nil
}
