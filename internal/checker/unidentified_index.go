package checker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/internal/matcher"
)

// UnidentifiedIndex reports unknown barcodes that take a significant share
// of a lane and lists samplesheet entries that could explain them.
const UnidentifiedIndex = "unidentified_index"

// Parameters of the unidentified_index checker
const (
	ParamSignificanceThreshold = "significance_threshold"
	ParamWhiteListedIndexes    = "white_listed_indexes"
)

type unidentifiedIndexParams struct {
	significance float64
	whitelist    []*regexp.Regexp
}

func parseUnidentifiedIndexParams(cfg domain.CheckerConfig) (unidentifiedIndexParams, error) {
	significance, err := cfg.Float(ParamSignificanceThreshold)
	if err != nil {
		return unidentifiedIndexParams{}, err
	}
	patterns, err := cfg.Strings(ParamWhiteListedIndexes)
	if err != nil {
		return unidentifiedIndexParams{}, err
	}

	p := unidentifiedIndexParams{significance: significance}
	for _, pattern := range patterns {
		// patterns are anchored at the start of the barcode only
		re, err := regexp.Compile("^(?:" + pattern + ")")
		if err != nil {
			return unidentifiedIndexParams{}, domain.NewCheckerConfigError(cfg.Name, ParamWhiteListedIndexes,
				fmt.Sprintf("invalid pattern %q: %v", pattern, err))
		}
		p.whitelist = append(p.whitelist, re)
	}
	return p, nil
}

func (p unidentifiedIndexParams) whitelisted(index string) bool {
	for _, re := range p.whitelist {
		if re.MatchString(index) {
			return true
		}
	}
	return false
}

func validateUnidentifiedIndex(cfg domain.CheckerConfig) error {
	_, err := parseUnidentifiedIndexParams(cfg)
	return err
}

func checkUnidentifiedIndex(data *domain.QCData, cfg domain.CheckerConfig) ([]*domain.QCReport, error) {
	params, err := parseUnidentifiedIndexParams(cfg)
	if err != nil {
		return nil, err
	}
	m := matcher.New(data.Samplesheet)

	var reports []*domain.QCReport
	for _, lane := range data.Lanes() {
		metrics := data.SequencingMetrics[lane]
		if metrics.TotalReadsPF == 0 {
			continue
		}
		for _, barcode := range metrics.TopUnknownBarcodes {
			significance := float64(barcode.Count) / float64(metrics.TotalReadsPF) * 100
			if significance < params.significance {
				continue
			}
			index := barcode.FullIndex()

			var msg strings.Builder
			fmt.Fprintf(&msg, "Overrepresented unknown barcode: %s (%.1f%% >= %.1f%%).",
				index, significance, params.significance)

			severity := domain.SeverityError
			whitelisted := params.whitelisted(index)
			if whitelisted {
				severity = domain.SeverityWarning
				msg.WriteString(" This barcode is white-listed.")
			}

			causes := m.ListCauses(matcher.NewBarcode(barcode, lane))
			causeData := make([]map[string]any, 0, len(causes))
			if len(causes) > 0 {
				msg.WriteString("\nPossible causes are:")
				for _, c := range causes {
					msg.WriteString("\n- " + c.Message)
					causeData = append(causeData, c.Data())
				}
			}

			reports = append(reports, newReport(severity, UnidentifiedIndex, lane,
				fmt.Sprintf("%d:%s", lane, index), msg.String(), map[string]any{
					"index":                 index,
					"count":                 barcode.Count,
					"significance":          significance,
					"white_listed":          whitelisted,
					domain.DataKeyThreshold: params.significance,
					domain.DataKeyCauses:    causeData,
				}))
		}
	}
	return reports, nil
}
