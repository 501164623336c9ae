package service

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/internal/testutil"
)

func sampleResult(t *testing.T) *domain.CheckResult {
	t.Helper()
	configs, data, reports := viewFixture()
	return &domain.CheckResult{
		Source:      "runs/200101_A00001_0001_AH0001",
		ExitStatus:  domain.ExitStatus(reports),
		Passed:      !domain.HasFatal(reports),
		View:        domain.ViewIllumina,
		Output:      IlluminaView(configs, data, reports),
		Reports:     reports,
		GeneratedAt: "2026-01-01T00:00:00Z",
		Version:     "test",
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, map[string]interface{}{"name": "test", "value": 42}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse output as JSON: %v", err)
	}
	if result["name"] != "test" {
		t.Errorf("Expected name to be 'test', got %v", result["name"])
	}
}

func TestOutputFormatter_CheckJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewOutputFormatter(false).Write(sampleResult(t), domain.OutputFormatJSON, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded struct {
		ExitStatus int  `json:"exit_status"`
		Passed     bool `json:"passed"`
		Output     struct {
			LaneReports map[string]map[string][]string `json:"lane reports"`
			Other       map[string][]string            `json:"other reports"`
			RunSummary  map[string]interface{}         `json:"run_summary"`
		} `json:"output"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if decoded.ExitStatus != 1 || decoded.Passed {
		t.Errorf("unexpected status %d/%v", decoded.ExitStatus, decoded.Passed)
	}
	if got := decoded.Output.LaneReports["2"]["yield"]; len(got) != 1 || got[0] != "Fatal QC error: lane two" {
		t.Errorf("unexpected lane 2 yield reports: %v", got)
	}
	if len(decoded.Output.Other["yield"]) != 1 {
		t.Errorf("expected run wide report under other reports: %v", decoded.Output.Other)
	}
	if decoded.Output.RunSummary["instrument_and_reagent_version"] != "novaseq_SP" {
		t.Errorf("unexpected run summary: %v", decoded.Output.RunSummary)
	}
	if strings.Contains(buf.String(), `"Reports"`) {
		t.Error("raw reports must not be serialized")
	}
}

func TestOutputFormatter_CheckYAML(t *testing.T) {
	result := sampleResult(t)
	configs, data, reports := viewFixture()
	result.View = domain.ViewFull
	result.Output = FullView(configs, data, reports)

	var buf bytes.Buffer
	if err := NewOutputFormatter(false).Write(result, domain.OutputFormatYAML, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded struct {
		View   string `yaml:"view"`
		Output struct {
			Reports []struct {
				Type    string                 `yaml:"type"`
				Message string                 `yaml:"message"`
				Data    map[string]interface{} `yaml:"data"`
			} `yaml:"reports"`
		} `yaml:"output"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	if decoded.View != domain.ViewFull {
		t.Errorf("unexpected view %q", decoded.View)
	}
	if len(decoded.Output.Reports) != 5 {
		t.Fatalf("expected 5 reports, got %d", len(decoded.Output.Reports))
	}
	if decoded.Output.Reports[0].Type != "error" || decoded.Output.Reports[0].Message != "run wide" {
		t.Errorf("unexpected first report %+v", decoded.Output.Reports[0])
	}
}

func TestOutputFormatter_CheckText(t *testing.T) {
	var buf bytes.Buffer
	if err := NewOutputFormatter(false).Write(sampleResult(t), domain.OutputFormatText, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Source: runs/200101_A00001_0001_AH0001",
		"Instrument: novaseq_SP",
		"Lane 2:",
		"  yield:",
		"    - Fatal QC error: lane two",
		"Other reports:",
		"Status: FAILED (exit status 1)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Lane 2:") > strings.Index(out, "Lane 10:") {
		t.Error("lanes should be listed in numeric order")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("colour codes written with colour disabled")
	}
}

func TestOutputFormatter_TextNoFindings(t *testing.T) {
	data := testutil.HealthyRun()
	result := &domain.CheckResult{
		ExitStatus: 0,
		Passed:     true,
		Output:     BasicView(nil, data, nil),
	}

	var buf bytes.Buffer
	if err := NewOutputFormatter(true).Write(result, domain.OutputFormatText, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No QC findings.") {
		t.Errorf("expected no findings line:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "PASSED") {
		t.Errorf("expected PASSED status:\n%s", buf.String())
	}
}

func TestOutputFormatter_WriteBatch(t *testing.T) {
	batch := &BatchResultJSON{
		ExitStatus: 3,
		Runs:       map[string]*domain.CheckResult{"run_b": sampleResult(t)},
		Errors:     map[string]string{"run_a": "no config entry"},
	}

	var js bytes.Buffer
	if err := NewOutputFormatter(false).WriteBatch(batch, domain.OutputFormatJSON, &js); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["exit_status"].(float64) != 3 {
		t.Errorf("unexpected exit status %v", decoded["exit_status"])
	}

	var text bytes.Buffer
	if err := NewOutputFormatter(false).WriteBatch(batch, domain.OutputFormatText, &text); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	if !strings.Contains(text.String(), "run_a: no config entry") || !strings.Contains(text.String(), "Batch exit status: 3") {
		t.Errorf("unexpected batch text:\n%s", text.String())
	}
}

func TestOutputFormatter_UnsupportedFormat(t *testing.T) {
	f := NewOutputFormatter(false)
	var buf bytes.Buffer

	if err := f.Write(sampleResult(t), domain.OutputFormat("xml"), &buf); err == nil {
		t.Error("expected error for unsupported format")
	}
	if err := f.WriteBatch(&BatchResultJSON{}, domain.OutputFormat("csv"), &buf); err == nil {
		t.Error("expected error for unsupported batch format")
	}
}
