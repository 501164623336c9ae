package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Strictness represents how findings are classified by generated rules
type Strictness string

const (
	// StrictnessRelaxed only emits warnings
	StrictnessRelaxed Strictness = "relaxed"

	// StrictnessStandard fails runs on sample and undetermined yield problems
	StrictnessStandard Strictness = "standard"

	// StrictnessStrict fails runs on every checker
	StrictnessStrict Strictness = "strict"
)

// Strictnesses lists the strictness levels from laxest to strictest
func Strictnesses() []Strictness {
	return []Strictness{StrictnessRelaxed, StrictnessStandard, StrictnessStrict}
}

// InstrumentPreset holds the nominal output of an instrument and reagent kit
type InstrumentPreset struct {
	Description string

	// ReadLengths is the bucket key the preset is written under
	ReadLengths string

	// ClusterPF is the expected clusters per lane, in millions
	ClusterPF float64

	// ErrorRate is the acceptable PhiX error rate, in percent
	ErrorRate float64

	// PercentQ30 is the expected share of bases at Q30 or above
	PercentQ30 float64
}

// GetInstrumentPresets returns presets for supported instruments
func GetInstrumentPresets() map[string]InstrumentPreset {
	return map[string]InstrumentPreset{
		"novaseq_SP": {Description: "NovaSeq 6000, SP flow cell", ReadLengths: "36-251", ClusterPF: 325, ErrorRate: 2, PercentQ30: 75},
		"novaseq_S1": {Description: "NovaSeq 6000, S1 flow cell", ReadLengths: "36-151", ClusterPF: 650, ErrorRate: 2, PercentQ30: 75},
		"novaseq_S2": {Description: "NovaSeq 6000, S2 flow cell", ReadLengths: "36-151", ClusterPF: 1650, ErrorRate: 2, PercentQ30: 75},
		"novaseq_S4": {Description: "NovaSeq 6000, S4 flow cell", ReadLengths: "36-151", ClusterPF: 2000, ErrorRate: 2, PercentQ30: 75},
		"miseq_v2":   {Description: "MiSeq, v2 reagents", ReadLengths: "36-250", ClusterPF: 10, ErrorRate: 2, PercentQ30: 70},
		"miseq_v3":   {Description: "MiSeq, v3 reagents", ReadLengths: "36-300", ClusterPF: 18, ErrorRate: 2.5, PercentQ30: 60},
	}
}

// InstrumentNames returns the preset names in alphabetical order
func InstrumentNames() []string {
	presets := GetInstrumentPresets()
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type thresholdPair struct {
	error   string
	warning string
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func warnOnly(v float64) thresholdPair {
	return thresholdPair{error: "unknown", warning: number(v)}
}

func errorOnly(v float64) thresholdPair {
	return thresholdPair{error: number(v), warning: "unknown"}
}

// GetQCRulesTemplate returns a documented QC rule file for one instrument
func GetQCRulesTemplate(instrument string, strictness Strictness) (string, error) {
	preset, ok := GetInstrumentPresets()[instrument]
	if !ok {
		return "", fmt.Errorf("unknown instrument preset %q, must be one of: %s", instrument, strings.Join(InstrumentNames(), ", "))
	}

	// reads_per_sample shares the nominal cluster count of a lane, with headroom
	budget := preset.ClusterPF / 2

	var clusterPF, errorRate, q30, readsPerSample, undetermined thresholdPair
	switch strictness {
	case StrictnessRelaxed:
		clusterPF = warnOnly(preset.ClusterPF)
		errorRate = warnOnly(preset.ErrorRate)
		q30 = warnOnly(preset.PercentQ30)
		readsPerSample = warnOnly(budget)
		undetermined = warnOnly(9)
	case StrictnessStandard:
		clusterPF = warnOnly(preset.ClusterPF)
		errorRate = warnOnly(preset.ErrorRate)
		q30 = warnOnly(preset.PercentQ30)
		readsPerSample = errorOnly(budget)
		undetermined = errorOnly(9)
	case StrictnessStrict:
		clusterPF = thresholdPair{error: number(preset.ClusterPF * 4 / 5), warning: number(preset.ClusterPF)}
		errorRate = thresholdPair{error: number(preset.ErrorRate + 1), warning: number(preset.ErrorRate)}
		q30 = thresholdPair{error: number(preset.PercentQ30 - 10), warning: number(preset.PercentQ30)}
		readsPerSample = thresholdPair{error: number(budget), warning: number(budget * 6 / 5)}
		undetermined = thresholdPair{error: "9", warning: "5"}
	default:
		return "", fmt.Errorf("unknown strictness %q", strictness)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `# seqgate QC rules
# Instrument: %s (%s), strictness: %s
#
# Thresholds of "unknown" are not evaluated. See "seqgate checkers" for the
# available checkers and their parameters.

default_handlers:
  - name: undetermined_percentage
    error: %s
    warning: %s
  - name: unidentified_index
    # percent of the lane reads an unknown barcode must reach to be reported
    significance_threshold: 1
    # barcodes matching these patterns are reported as warnings only
    white_listed_indexes:
      - .*N.*
      - G{6,}

%s:
  %s:
    view: illumina_view
    handlers:
`, instrument, preset.Description, strictness, undetermined.error, undetermined.warning, instrument, preset.ReadLengths)

	writeHandler(&b, "cluster_pf", "millions of clusters passing filter per lane", clusterPF)
	writeHandler(&b, "error_rate", "PhiX error rate in percent", errorRate)
	b.WriteString("        allow_missing_error_rate: false\n")
	writeHandler(&b, "percent_q30", "percent of bases at Q30 or above", q30)
	writeHandler(&b, "reads_per_sample", "millions of reads per lane, split across samples", readsPerSample)

	return b.String(), nil
}

func writeHandler(b *strings.Builder, name, doc string, t thresholdPair) {
	fmt.Fprintf(b, "      # %s\n      - name: %s\n        error: %s\n        warning: %s\n", doc, name, t.error, t.warning)
}

// GetSettingsTemplate returns a documented tool settings file
func GetSettingsTemplate(qcConfigPath, outputFormat string) string {
	d := DefaultConfig()
	return `# seqgate settings
# Environment variables prefixed with SEQGATE_ override these values,
# e.g. SEQGATE_OUTPUT_FORMAT=yaml.

qc:
  # QC rule file; leave empty to use the built-in rules
  config_path: "` + qcConfigPath + `"

  # Use the closest read-length rule set when none matches exactly
  use_closest_read_length: false

  # Checkers whose errors are reported as warnings
  downgrade_errors_for: []

  # View override: illumina_view, basic_view or full_view
  view: ""

output:
  # Output format: json, yaml, text or html
  format: ` + outputFormat + `
  color: true

performance:
  # Runs evaluated concurrently by "seqgate batch"
  max_goroutines: ` + strconv.Itoa(d.Performance.MaxGoroutines) + `
  timeout_seconds: ` + strconv.Itoa(d.Performance.TimeoutSeconds) + `

batch:
  data_file_names: [` + strings.Join(d.Batch.DataFileNames, ", ") + `]
  # gitignore style patterns of runfolders to skip
  ignore_patterns: []

server:
  port: ` + strconv.Itoa(d.Server.Port) + `
  # directory runfolders are resolved against
  monitor_path: "."
  max_concurrent_requests: ` + strconv.Itoa(d.Server.MaxConcurrentRequests) + `
`
}
