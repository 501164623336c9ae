package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"

	"github.com/ludo-technologies/seqgate/domain"
)

// Sections holding sample rows, bcl2fastq and BCL Convert style
var sampleSections = map[string]bool{
	"[data]":            true,
	"[bclconvert_data]": true,
}

// Normalized samplesheet columns
const (
	columnLane     = "lane"
	columnSampleID = "sample_id"
	columnIndex    = "index"
	columnIndex2   = "index2"
)

// normalizeColumn maps producer specific column names (Sample_ID,
// SampleID, Index, index2, ...) to the normalized names
func normalizeColumn(name string) string {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
	switch key {
	case "lane":
		return columnLane
	case "sampleid":
		return columnSampleID
	case "index":
		return columnIndex
	case "index2":
		return columnIndex2
	default:
		return key
	}
}

// ReadSampleSheet reads the sample rows of an Illumina samplesheet
func ReadSampleSheet(path string) ([]domain.SamplesheetRow, error) {
	r, err := xopen.Ropen(path)
	if err != nil {
		return nil, domain.NewFileNotFoundError(path, err)
	}
	defer r.Close()

	rows, err := ParseSampleSheet(r)
	if err != nil {
		return nil, domain.NewParseError(path, err)
	}
	return rows, nil
}

// ParseSampleSheet parses a sectioned samplesheet. Rows without a Lane
// column get lane 0, meaning every lane of the run.
func ParseSampleSheet(r io.Reader) ([]domain.SamplesheetRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		inData  bool
		header  []string
		rows    []domain.SamplesheetRow
		line    int
		sawData bool
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "malformed samplesheet")
		}
		line++
		if isBlank(record) {
			continue
		}

		first := strings.TrimSpace(record[0])
		if strings.HasPrefix(first, "[") {
			inData = sampleSections[strings.ToLower(first)]
			sawData = sawData || inData
			header = nil
			continue
		}
		if !inData {
			continue
		}
		if header == nil {
			header = make([]string, len(record))
			for i, name := range record {
				header[i] = normalizeColumn(name)
			}
			continue
		}

		row, err := samplesheetRow(header, record)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d", line)
		}
		rows = append(rows, row)
	}

	if !sawData {
		return nil, fmt.Errorf("no [Data] or [BCLConvert_Data] section")
	}
	return rows, nil
}

func samplesheetRow(header, record []string) (domain.SamplesheetRow, error) {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(record) {
			fields[name] = strings.TrimSpace(record[i])
		}
	}
	return rowFromFields(fields)
}

func rowFromFields(fields map[string]string) (domain.SamplesheetRow, error) {
	row := domain.SamplesheetRow{
		SampleID: fields[columnSampleID],
		Index:    fields[columnIndex],
		Index2:   fields[columnIndex2],
	}
	if row.SampleID == "" {
		return row, fmt.Errorf("missing sample id")
	}
	if lane := fields[columnLane]; lane != "" {
		n, err := strconv.Atoi(lane)
		if err != nil || n < 1 {
			return row, fmt.Errorf("invalid lane %q for sample %s", lane, row.SampleID)
		}
		row.Lane = n
	}
	return row, nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// expandLanes copies rows that carry no lane onto every lane of the run
func expandLanes(rows []domain.SamplesheetRow, lanes []int) []domain.SamplesheetRow {
	out := make([]domain.SamplesheetRow, 0, len(rows))
	for _, row := range rows {
		if row.Lane != 0 {
			out = append(out, row)
			continue
		}
		for _, lane := range lanes {
			r := row
			r.Lane = lane
			out = append(out, r)
		}
	}
	return out
}
