// Package testutil provides fixtures and helpers for testing seqgate components
package testutil

import (
	"math"

	"github.com/ludo-technologies/seqgate/domain"
)

// RunBuilder assembles QCData fixtures lane by lane
type RunBuilder struct {
	data *domain.QCData
}

// NewRun starts a fixture for the given instrument and read length
func NewRun(instrument string, readLength int) *RunBuilder {
	return &RunBuilder{data: &domain.QCData{
		Instrument:        instrument,
		ReadLength:        readLength,
		SequencingMetrics: make(map[int]domain.LaneMetrics),
	}}
}

// Lane sets the metrics of a lane, replacing any previous value
func (b *RunBuilder) Lane(lane int, metrics domain.LaneMetrics) *RunBuilder {
	if metrics.Reads == nil {
		metrics.Reads = make(map[int]domain.ReadMetrics)
	}
	b.data.SequencingMetrics[lane] = metrics
	return b
}

// Read sets the metrics of one read, creating the lane when needed
func (b *RunBuilder) Read(lane, read int, metrics domain.ReadMetrics) *RunBuilder {
	lm := b.data.SequencingMetrics[lane]
	if lm.Reads == nil {
		lm.Reads = make(map[int]domain.ReadMetrics)
	}
	lm.Reads[read] = metrics
	b.data.SequencingMetrics[lane] = lm
	return b
}

// Sample appends a samplesheet row
func (b *RunBuilder) Sample(row domain.SamplesheetRow) *RunBuilder {
	b.data.Samplesheet = append(b.data.Samplesheet, row)
	return b
}

// Build returns the assembled run
func (b *RunBuilder) Build() *domain.QCData {
	return b.data
}

// GoodRead returns read metrics that pass the default rule set
func GoodRead() domain.ReadMetrics {
	return domain.ReadMetrics{
		MeanErrorRate:          0.5,
		PercentQ30:             92,
		MeanPercentPhixAligned: 1,
	}
}

// NoPhixRead returns read metrics of a lane without a PhiX spike-in
func NoPhixRead() domain.ReadMetrics {
	return domain.ReadMetrics{
		MeanErrorRate:          math.NaN(),
		PercentQ30:             92,
		MeanPercentPhixAligned: math.NaN(),
	}
}

// HealthyRun returns a two lane paired-end run that raises no report with
// the default novaseq_SP rules
func HealthyRun() *domain.QCData {
	b := NewRun("novaseq_SP", 151)
	for lane := 1; lane <= 2; lane++ {
		b.Lane(lane, domain.LaneMetrics{
			TotalReadsPF:      900_000_000,
			Yield:             200_000_000_000,
			YieldUndetermined: 4_000_000_000,
			ReadsPerSample: []domain.SampleReads{
				{SampleID: "S1", ClusterCount: 450_000_000},
				{SampleID: "S2", ClusterCount: 450_000_000},
			},
		})
		b.Read(lane, 1, GoodRead())
		b.Read(lane, 2, GoodRead())
	}
	b.Sample(domain.SamplesheetRow{Lane: 1, SampleID: "S1", Index: "ACGTACGT", Index2: "TTGGCCAA"})
	b.Sample(domain.SamplesheetRow{Lane: 1, SampleID: "S2", Index: "GGGGAAAA", Index2: "CCCCTTTT"})
	b.Sample(domain.SamplesheetRow{Lane: 2, SampleID: "S1", Index: "ACGTACGT", Index2: "TTGGCCAA"})
	b.Sample(domain.SamplesheetRow{Lane: 2, SampleID: "S2", Index: "GGGGAAAA", Index2: "CCCCTTTT"})
	return b.Build()
}

// Config builds a checker config from alternating key/value pairs
func Config(name string, kv ...any) domain.CheckerConfig {
	params := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		params[kv[i].(string)] = kv[i+1]
	}
	return domain.CheckerConfig{Name: name, Params: params}
}

// Thresholds builds a threshold checker config
func Thresholds(name string, errorThreshold, warningThreshold any) domain.CheckerConfig {
	return Config(name,
		domain.ParamErrorThreshold, errorThreshold,
		domain.ParamWarningThreshold, warningThreshold)
}

// CountBySeverity counts fatal and warning reports
func CountBySeverity(reports []*domain.QCReport) (fatal, warning int) {
	for _, r := range reports {
		if r.IsFatal() {
			fatal++
		} else {
			warning++
		}
	}
	return fatal, warning
}
