package service

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/internal/constants"
)

// wire format of a QC data bundle
type qcDataWire struct {
	Instrument        string                  `json:"instrument" yaml:"instrument"`
	ReadLength        int                     `json:"read_length" yaml:"read_length"`
	Samplesheet       []map[string]any        `json:"samplesheet" yaml:"samplesheet"`
	SequencingMetrics map[string]laneMetricsW `json:"sequencing_metrics" yaml:"sequencing_metrics"`
}

type laneMetricsW struct {
	TotalReadsPF       int64                   `json:"total_reads_pf" yaml:"total_reads_pf"`
	Yield              int64                   `json:"yield" yaml:"yield"`
	YieldUndetermined  int64                   `json:"yield_undetermined" yaml:"yield_undetermined"`
	TopUnknownBarcodes []domain.UnknownBarcode `json:"top_unknown_barcodes" yaml:"top_unknown_barcodes"`
	Reads              map[string]readMetricsW `json:"reads" yaml:"reads"`
	ReadsPerSample     []domain.SampleReads    `json:"reads_per_sample" yaml:"reads_per_sample"`
}

// null floats mean the metric was not measured
type readMetricsW struct {
	MeanErrorRate          *float64 `json:"mean_error_rate" yaml:"mean_error_rate"`
	PercentQ30             *float64 `json:"percent_q30" yaml:"percent_q30"`
	IsIndex                bool     `json:"is_index" yaml:"is_index"`
	MeanPercentPhixAligned *float64 `json:"mean_percent_phix_aligned" yaml:"mean_percent_phix_aligned"`
}

// QCDataLoaderImpl reads QC data bundles produced by the upstream parsers
type QCDataLoaderImpl struct {
	dataFileNames []string
}

// NewQCDataLoader creates a loader looking for the given bundle names in
// runfolders. An empty list selects the default names.
func NewQCDataLoader(dataFileNames []string) *QCDataLoaderImpl {
	if len(dataFileNames) == 0 {
		dataFileNames = constants.DefaultDataFileNames()
	}
	return &QCDataLoaderImpl{dataFileNames: dataFileNames}
}

// FindDataFile returns the bundle of a runfolder, or path itself when it is a file
func (l *QCDataLoaderImpl) FindDataFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", domain.NewFileNotFoundError(path, err)
	}
	if !info.IsDir() {
		return path, nil
	}
	for _, name := range l.dataFileNames {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", domain.NewFileNotFoundError(filepath.Join(path, l.dataFileNames[0]), nil)
}

// Load reads a bundle from a file or a runfolder. A SampleSheet.csv next to
// the bundle replaces the bundled samplesheet.
func (l *QCDataLoaderImpl) Load(path string) (*domain.QCData, error) {
	dataFile, err := l.FindDataFile(path)
	if err != nil {
		return nil, err
	}

	data, err := l.LoadFile(dataFile)
	if err != nil {
		return nil, err
	}

	sheet := filepath.Join(filepath.Dir(dataFile), constants.SampleSheetFileName)
	if _, err := os.Stat(sheet); err == nil {
		if err := l.ApplySampleSheet(data, sheet); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// ApplySampleSheet replaces the samplesheet of data with the rows of a CSV samplesheet
func (l *QCDataLoaderImpl) ApplySampleSheet(data *domain.QCData, path string) error {
	rows, err := ReadSampleSheet(path)
	if err != nil {
		return err
	}
	data.Samplesheet = expandLanes(rows, data.Lanes())
	return nil
}

// LoadFile decodes one bundle file, gzip compressed or not
func (l *QCDataLoaderImpl) LoadFile(path string) (*domain.QCData, error) {
	r, err := xopen.Ropen(path)
	if err != nil {
		return nil, domain.NewFileNotFoundError(path, err)
	}
	defer r.Close()

	data, err := DecodeQCData(r)
	if err != nil {
		return nil, domain.NewParseError(path, err)
	}
	return data, nil
}

// DecodeQCData decodes and validates a JSON or YAML bundle
func DecodeQCData(r io.Reader) (*domain.QCData, error) {
	var wire qcDataWire
	br := bufio.NewReader(r)
	if looksLikeJSON(br) {
		if err := json.NewDecoder(br).Decode(&wire); err != nil {
			return nil, errors.Wrap(err, "decode JSON QC data")
		}
	} else if err := yaml.NewDecoder(br).Decode(&wire); err != nil {
		return nil, errors.Wrap(err, "decode YAML QC data")
	}

	if wire.Instrument == "" {
		return nil, fmt.Errorf("missing instrument")
	}
	if wire.ReadLength <= 0 {
		return nil, fmt.Errorf("read_length must be positive, got %d", wire.ReadLength)
	}

	data := &domain.QCData{
		Instrument:        wire.Instrument,
		ReadLength:        wire.ReadLength,
		SequencingMetrics: make(map[int]domain.LaneMetrics, len(wire.SequencingMetrics)),
	}

	for key, lw := range wire.SequencingMetrics {
		lane, err := positiveKey(key)
		if err != nil {
			return nil, errors.Wrap(err, "sequencing_metrics")
		}
		if lw.YieldUndetermined > lw.Yield {
			return nil, fmt.Errorf("lane %d: yield_undetermined %d exceeds yield %d", lane, lw.YieldUndetermined, lw.Yield)
		}
		lm := domain.LaneMetrics{
			TotalReadsPF:       lw.TotalReadsPF,
			Yield:              lw.Yield,
			YieldUndetermined:  lw.YieldUndetermined,
			TopUnknownBarcodes: lw.TopUnknownBarcodes,
			ReadsPerSample:     lw.ReadsPerSample,
			Reads:              make(map[int]domain.ReadMetrics, len(lw.Reads)),
		}
		for rkey, rw := range lw.Reads {
			read, err := positiveKey(rkey)
			if err != nil {
				return nil, errors.Wrapf(err, "lane %d reads", lane)
			}
			lm.Reads[read] = domain.ReadMetrics{
				MeanErrorRate:          orNaN(rw.MeanErrorRate),
				PercentQ30:             orZero(rw.PercentQ30),
				IsIndex:                rw.IsIndex,
				MeanPercentPhixAligned: orNaN(rw.MeanPercentPhixAligned),
			}
		}
		data.SequencingMetrics[lane] = lm
	}

	rows := make([]domain.SamplesheetRow, 0, len(wire.Samplesheet))
	for i, raw := range wire.Samplesheet {
		fields := make(map[string]string, len(raw))
		for k, v := range raw {
			// null columns are absent, not the string "<nil>"
			if v == nil {
				continue
			}
			fields[normalizeColumn(k)] = fmt.Sprint(v)
		}
		row, err := rowFromFields(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "samplesheet row %d", i+1)
		}
		rows = append(rows, row)
	}
	data.Samplesheet = expandLanes(rows, data.Lanes())

	return data, nil
}

// looksLikeJSON peeks at the first non blank byte
func looksLikeJSON(br *bufio.Reader) bool {
	for i := 1; ; i++ {
		buf, _ := br.Peek(i)
		if len(buf) < i {
			return false
		}
		switch c := buf[i-1]; c {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
}

func positiveKey(key string) (int, error) {
	n, err := strconv.Atoi(key)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("expected a positive number, got %q", key)
	}
	return n, nil
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
