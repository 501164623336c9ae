package domain

import (
	"math"
	"sort"
)

// QCData is everything known about one sequencing run. It is produced once by
// a loader and handed to the reporter; checkers only read it.
type QCData struct {
	// Instrument is the instrument and reagent identifier, e.g. "novaseq_SP"
	Instrument string `json:"instrument" yaml:"instrument"`

	// ReadLength is the run read length used to select a rule set
	ReadLength int `json:"read_length" yaml:"read_length"`

	Samplesheet       []SamplesheetRow    `json:"samplesheet" yaml:"samplesheet"`
	SequencingMetrics map[int]LaneMetrics `json:"sequencing_metrics" yaml:"sequencing_metrics"`
}

// LaneMetrics holds the per-lane metrics of a run
type LaneMetrics struct {
	TotalReadsPF       int64               `json:"total_reads_pf" yaml:"total_reads_pf"`
	Yield              int64               `json:"yield" yaml:"yield"`
	YieldUndetermined  int64               `json:"yield_undetermined" yaml:"yield_undetermined"`
	TopUnknownBarcodes []UnknownBarcode    `json:"top_unknown_barcodes" yaml:"top_unknown_barcodes"`
	Reads              map[int]ReadMetrics `json:"reads" yaml:"reads"`
	ReadsPerSample     []SampleReads       `json:"reads_per_sample" yaml:"reads_per_sample"`
}

// ReadMetrics holds the metrics of one read on one lane.
// MeanErrorRate and MeanPercentPhixAligned are NaN when no control library was loaded.
type ReadMetrics struct {
	MeanErrorRate          float64 `json:"mean_error_rate" yaml:"mean_error_rate"`
	PercentQ30             float64 `json:"percent_q30" yaml:"percent_q30"`
	IsIndex                bool    `json:"is_index" yaml:"is_index"`
	MeanPercentPhixAligned float64 `json:"mean_percent_phix_aligned" yaml:"mean_percent_phix_aligned"`
}

// UnknownBarcode is one of the most frequent barcodes that matched no sample
type UnknownBarcode struct {
	Index  string `json:"index" yaml:"index"`
	Index2 string `json:"index2,omitempty" yaml:"index2,omitempty"`
	Count  int64  `json:"count" yaml:"count"`
}

// IsDual reports whether the barcode has a second index
func (b UnknownBarcode) IsDual() bool {
	return b.Index2 != ""
}

// FullIndex returns "index" or "index+index2"
func (b UnknownBarcode) FullIndex() string {
	return JoinIndex(b.Index, b.Index2)
}

// SampleReads is the cluster count demultiplexed to one sample
type SampleReads struct {
	SampleID     string `json:"sample_id" yaml:"sample_id"`
	ClusterCount int64  `json:"cluster_count" yaml:"cluster_count"`
}

// SamplesheetRow is a normalized samplesheet entry
type SamplesheetRow struct {
	Lane     int    `json:"lane" yaml:"lane"`
	SampleID string `json:"sample_id" yaml:"sample_id"`
	Index    string `json:"index" yaml:"index"`
	Index2   string `json:"index2,omitempty" yaml:"index2,omitempty"`
}

// IsDual reports whether the sample uses a dual index
func (r SamplesheetRow) IsDual() bool {
	return r.Index2 != ""
}

// FullIndex returns "index" or "index+index2"
func (r SamplesheetRow) FullIndex() string {
	return JoinIndex(r.Index, r.Index2)
}

// JoinIndex joins the two halves of a dual index with '+'
func JoinIndex(index, index2 string) string {
	if index2 == "" {
		return index
	}
	return index + "+" + index2
}

// Lanes returns the lane numbers in ascending order
func (d *QCData) Lanes() []int {
	lanes := make([]int, 0, len(d.SequencingMetrics))
	for lane := range d.SequencingMetrics {
		lanes = append(lanes, lane)
	}
	sort.Ints(lanes)
	return lanes
}

// ReadNumbers returns the read numbers of the lane in ascending order
func (l LaneMetrics) ReadNumbers() []int {
	reads := make([]int, 0, len(l.Reads))
	for read := range l.Reads {
		reads = append(reads, read)
	}
	sort.Ints(reads)
	return reads
}

// MeanPercentPhixAligned averages the phiX alignment rate over reads,
// ignoring NaN values. It returns 0 when no read carries phiX data.
func (l LaneMetrics) MeanPercentPhixAligned() float64 {
	var sum float64
	var n int
	for _, read := range l.Reads {
		if math.IsNaN(read.MeanPercentPhixAligned) {
			continue
		}
		sum += read.MeanPercentPhixAligned
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
