package service

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/seqgate/domain"
)

// OutputFormatterImpl renders check results as json, yaml, text or html
type OutputFormatterImpl struct {
	colorize bool
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter(colorize bool) *OutputFormatterImpl {
	return &OutputFormatterImpl{colorize: colorize}
}

// WriteJSON writes data as JSON to the writer
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteYAML writes data as YAML to the writer
func WriteYAML(writer io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// Write writes one check result in the specified format
func (f *OutputFormatterImpl) Write(result *domain.CheckResult, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, result)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, result)
	case domain.OutputFormatText:
		return f.writeCheckText(result, writer)
	case domain.OutputFormatHTML:
		return f.WriteHTML(result, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// BatchResultJSON is the serialized form of a batch run
type BatchResultJSON struct {
	ExitStatus int                            `json:"exit_status" yaml:"exit_status"`
	Runs       map[string]*domain.CheckResult `json:"runs" yaml:"runs"`
	Errors     map[string]string              `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// WriteBatch writes the results of a batch in the specified format
func (f *OutputFormatterImpl) WriteBatch(batch *BatchResultJSON, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, batch)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, batch)
	case domain.OutputFormatText:
		names := make([]string, 0, len(batch.Runs))
		for name := range batch.Runs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := f.writeCheckText(batch.Runs[name], writer); err != nil {
				return err
			}
		}
		if len(batch.Errors) > 0 {
			fmt.Fprintf(writer, "\nErrors:\n")
			errNames := make([]string, 0, len(batch.Errors))
			for name := range batch.Errors {
				errNames = append(errNames, name)
			}
			sort.Strings(errNames)
			for _, name := range errNames {
				fmt.Fprintf(writer, "  %s: %s\n", name, batch.Errors[name])
			}
		}
		fmt.Fprintf(writer, "\nBatch exit status: %d\n", batch.ExitStatus)
		return nil
	case domain.OutputFormatHTML:
		return f.WriteBatchHTML(batch, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (f *OutputFormatterImpl) paint(attr color.Attribute) *color.Color {
	c := color.New(attr)
	if f.colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (f *OutputFormatterImpl) line(l domain.ReportLine) string {
	text := strings.ReplaceAll(l.Text, "\n", "\n      ")
	if l.Severity == domain.SeverityError {
		return f.paint(color.FgRed).Sprint(text)
	}
	return f.paint(color.FgYellow).Sprint(text)
}

// writeCheckText writes a check result as plain text
func (f *OutputFormatterImpl) writeCheckText(result *domain.CheckResult, writer io.Writer) error {
	summary := result.Output.Summary()

	fmt.Fprintf(writer, "\n=== seqgate QC Report ===\n\n")
	if result.Source != "" {
		fmt.Fprintf(writer, "Source: %s\n", result.Source)
	}
	fmt.Fprintf(writer, "Instrument: %s\n", summary.Instrument)
	fmt.Fprintf(writer, "Read length: %d\n", summary.ReadLength)
	fmt.Fprintf(writer, "Generated: %s\n", result.GeneratedAt)
	fmt.Fprintf(writer, "Version: %s\n\n", result.Version)

	switch out := result.Output.(type) {
	case *domain.LaneGroupedOutput:
		lanes := make([]int, 0, len(out.LaneReports))
		for lane := range out.LaneReports {
			lanes = append(lanes, lane)
		}
		sort.Ints(lanes)
		for _, lane := range lanes {
			fmt.Fprintf(writer, "Lane %d:\n", lane)
			f.writeGroup(out.LaneReports[lane], writer)
		}
		if len(out.OtherReports) > 0 {
			fmt.Fprintf(writer, "Other reports:\n")
			f.writeGroup(out.OtherReports, writer)
		}
	case *domain.FlatOutput:
		for _, l := range out.Reports {
			fmt.Fprintf(writer, "  - %s\n", f.line(l))
		}
	case *domain.FullOutput:
		for _, r := range out.Reports {
			fmt.Fprintf(writer, "  - [%s] %s\n", r.OrderingKey(), f.line(domain.NewReportLine(r)))
		}
	}

	if result.Output.ReportCount() == 0 {
		fmt.Fprintf(writer, "No QC findings.\n")
	}

	status := f.paint(color.FgGreen).Sprint("PASSED")
	if !result.Passed {
		status = f.paint(color.FgRed).Sprint("FAILED")
	}
	fmt.Fprintf(writer, "\nStatus: %s (exit status %d)\n", status, result.ExitStatus)
	return nil
}

func (f *OutputFormatterImpl) writeGroup(byChecker map[string][]domain.ReportLine, writer io.Writer) {
	names := make([]string, 0, len(byChecker))
	for name := range byChecker {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(writer, "  %s:\n", name)
		for _, l := range byChecker[name] {
			fmt.Fprintf(writer, "    - %s\n", f.line(l))
		}
	}
}
