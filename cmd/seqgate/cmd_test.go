package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/seqgate/internal/config"
	"github.com/ludo-technologies/seqgate/internal/constants"
)

const passingRun = `{
	"instrument": "novaseq_SP",
	"read_length": 151,
	"samplesheet": [{"lane": 1, "sample_id": "S1", "index": "ACGTACGT"}],
	"sequencing_metrics": {
		"1": {
			"total_reads_pf": 900000000,
			"yield": 200000000000,
			"yield_undetermined": 2000000000,
			"reads": {"1": {"mean_error_rate": 0.4, "percent_q30": 91, "mean_percent_phix_aligned": 1}},
			"reads_per_sample": [{"sample_id": "S1", "cluster_count": 800000000}]
		}
	}
}`

var failingRun = strings.Replace(passingRun, `"cluster_count": 800000000`, `"cluster_count": 100000000`, 1)

// writeWorkspace creates a settings file and one runfolder per run
func writeWorkspace(t *testing.T, runs map[string]string) (dir, settings string) {
	t.Helper()
	dir = t.TempDir()
	settings = filepath.Join(dir, ".seqgate.yaml")
	if err := os.WriteFile(settings, []byte(config.GetSettingsTemplate("", "json")), 0644); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}
	for name, content := range runs {
		runDir := filepath.Join(dir, name)
		if err := os.MkdirAll(runDir, 0755); err != nil {
			t.Fatalf("Failed to create runfolder: %v", err)
		}
		if err := os.WriteFile(filepath.Join(runDir, constants.DataFileJSON), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write QC data: %v", err)
		}
	}
	return dir, settings
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exitErr *CheckExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Expected CheckExitError, got %T: %v", err, err)
	}
	return exitErr.Code
}

func TestCheckCmd_FlagsExist(t *testing.T) {
	cmd := checkCmd()

	expectedFlags := []string{"config", "qc-config", "samplesheet", "use-closest-read-length",
		"downgrade-errors-for", "view", "format", "output", "no-color"}
	for _, flagName := range expectedFlags {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("Missing expected flag: --%s", flagName)
		}
	}
}

func TestCheckCmd_ShortFlags(t *testing.T) {
	cmd := checkCmd()

	shortFlags := map[string]string{
		"c": "config",
		"q": "qc-config",
		"s": "samplesheet",
		"f": "format",
		"o": "output",
	}
	for short, long := range shortFlags {
		flag := cmd.Flags().ShorthandLookup(short)
		if flag == nil || flag.Name != long {
			t.Errorf("Missing short flag -%s for --%s", short, long)
		}
	}
}

func TestCheckCmd_DefaultValues(t *testing.T) {
	cmd := checkCmd()

	if got := cmd.Flags().Lookup("format").DefValue; got != "json" {
		t.Errorf("Expected default format to be 'json', got '%s'", got)
	}
	if got := cmd.Flags().Lookup("use-closest-read-length").DefValue; got != "false" {
		t.Errorf("Expected use-closest-read-length to default to false, got '%s'", got)
	}
	if got := cmd.Flags().Lookup("downgrade-errors-for").DefValue; got != "[]" {
		t.Errorf("Expected no downgraded checkers by default, got '%s'", got)
	}
}

func TestCheckCmd_RequiresOneArgument(t *testing.T) {
	for _, args := range [][]string{{}, {"a", "b"}} {
		cmd := checkCmd()
		cmd.SetArgs(args)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		if err := cmd.Execute(); err == nil {
			t.Errorf("Expected error for args %v", args)
		}
	}
}

func TestCheckCmd_ExitCodes(t *testing.T) {
	dir, settings := writeWorkspace(t, map[string]string{
		"run_pass":  passingRun,
		"run_fail":  failingRun,
		"run_other": strings.Replace(passingRun, `"read_length": 151`, `"read_length": 400`, 1),
	})

	tests := []struct {
		name     string
		args     []string
		expected int
	}{
		{"passing run", []string{"run_pass"}, 0},
		{"fatal finding", []string{"run_fail"}, 1},
		{"downgraded finding", []string{"--downgrade-errors-for", "reads_per_sample", "run_fail"}, 0},
		{"no matching read length", []string{"run_other"}, 3},
		{"closest read length", []string{"--use-closest-read-length", "run_other"}, 0},
		{"missing runfolder", []string{"run_missing"}, 2},
		{"unsupported format", []string{"--format", "xml", "run_pass"}, 2},
		{"unknown view", []string{"--view", "fancy_view", "run_pass"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "result.json")
			args := append([]string{"-c", settings, "-o", out}, tt.args...)
			args[len(args)-1] = filepath.Join(dir, args[len(args)-1])

			cmd := checkCmd()
			cmd.SetArgs(args)
			if got := exitCode(t, cmd.Execute()); got != tt.expected {
				t.Errorf("Expected exit code %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestCheckCmd_WritesResult(t *testing.T) {
	dir, settings := writeWorkspace(t, map[string]string{"run_fail": failingRun})
	out := filepath.Join(t.TempDir(), "result.json")

	cmd := checkCmd()
	cmd.SetArgs([]string{"-c", settings, "-o", out, "--view", "full_view", filepath.Join(dir, "run_fail")})
	if got := exitCode(t, cmd.Execute()); got != 1 {
		t.Fatalf("Expected exit code 1, got %d", got)
	}

	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read result: %v", err)
	}
	var result struct {
		ExitStatus int    `json:"exit_status"`
		Passed     bool   `json:"passed"`
		View       string `json:"view"`
	}
	if err := json.Unmarshal(content, &result); err != nil {
		t.Fatalf("Result is not JSON: %v\n%s", err, content)
	}
	if result.ExitStatus != 1 || result.Passed {
		t.Errorf("Expected a failed run, got %+v", result)
	}
	if result.View != "full_view" {
		t.Errorf("Expected full_view, got %s", result.View)
	}
}

func TestCheckCmd_KeepsOutputOnError(t *testing.T) {
	dir, settings := writeWorkspace(t, map[string]string{
		"run_pass":  passingRun,
		"run_other": strings.Replace(passingRun, `"read_length": 151`, `"read_length": 400`, 1),
	})

	tests := []struct {
		name     string
		args     []string
		expected int
	}{
		{"unsupported format", []string{"--format", "xml", "run_pass"}, 2},
		{"no matching read length", []string{"run_other"}, 3},
		{"missing runfolder", []string{"run_missing"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "result.json")
			previous := `{"exit_status": 0}`
			if err := os.WriteFile(out, []byte(previous), 0644); err != nil {
				t.Fatalf("Failed to write previous result: %v", err)
			}

			args := append([]string{"-c", settings, "-o", out}, tt.args...)
			args[len(args)-1] = filepath.Join(dir, args[len(args)-1])

			cmd := checkCmd()
			cmd.SetArgs(args)
			if got := exitCode(t, cmd.Execute()); got != tt.expected {
				t.Errorf("Expected exit code %d, got %d", tt.expected, got)
			}

			content, err := os.ReadFile(out)
			if err != nil {
				t.Fatalf("Failed to read result: %v", err)
			}
			if string(content) != previous {
				t.Errorf("Expected the previous result to be kept, got %q", content)
			}
		})
	}
}

func TestBatchCmd_FlagsExist(t *testing.T) {
	cmd := batchCmd()

	expectedFlags := []string{"config", "qc-config", "use-closest-read-length", "downgrade-errors-for",
		"view", "format", "output", "max-goroutines", "timeout", "ignore", "no-progress"}
	for _, flagName := range expectedFlags {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("Missing expected flag: --%s", flagName)
		}
	}
}

func TestBatchCmd_NoPathsError(t *testing.T) {
	cmd := batchCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err == nil {
		t.Error("Expected error when no paths specified")
	}
}

func TestBatchCmd_WorstStatusWins(t *testing.T) {
	dir, settings := writeWorkspace(t, map[string]string{
		"run_1":         passingRun,
		"run_2":         failingRun,
		"archive/run_3": "not json",
	})
	out := filepath.Join(t.TempDir(), "batch.json")

	cmd := batchCmd()
	cmd.SetArgs([]string{"-c", settings, "-o", out, "--no-progress", dir})
	if got := exitCode(t, cmd.Execute()); got != 2 {
		t.Errorf("Expected exit code 2 with an unreadable run, got %d", got)
	}

	cmd = batchCmd()
	cmd.SetArgs([]string{"-c", settings, "-o", out, "--no-progress", "--ignore", "archive/", dir})
	if got := exitCode(t, cmd.Execute()); got != 1 {
		t.Errorf("Expected exit code 1 once the archive is ignored, got %d", got)
	}

	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read batch result: %v", err)
	}
	var batch struct {
		ExitStatus int                        `json:"exit_status"`
		Runs       map[string]json.RawMessage `json:"runs"`
	}
	if err := json.Unmarshal(content, &batch); err != nil {
		t.Fatalf("Batch result is not JSON: %v", err)
	}
	if batch.ExitStatus != 1 || len(batch.Runs) != 2 {
		t.Errorf("Expected two runs with exit status 1, got %d runs and status %d", len(batch.Runs), batch.ExitStatus)
	}
}

func TestServeCmd_FlagsExist(t *testing.T) {
	cmd := serveCmd()

	for _, flagName := range []string{"config", "qc-config", "port", "max-concurrent", "view"} {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("Missing expected flag: --%s", flagName)
		}
	}
}

func TestServeCmd_MissingMonitorPath(t *testing.T) {
	_, settings := writeWorkspace(t, nil)

	cmd := serveCmd()
	cmd.SetArgs([]string{"-c", settings, filepath.Join(t.TempDir(), "missing")})
	if got := exitCode(t, cmd.Execute()); got != 2 {
		t.Errorf("Expected exit code 2, got %d", got)
	}
}

func TestCheckersCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := checkersCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("checkers failed: %v", err)
	}

	for _, name := range []string{"cluster_pf", "error_rate", "percent_q30", "reads_per_sample",
		"undetermined_percentage", "unidentified_index", "yield"} {
		if !strings.Contains(buf.String(), name) {
			t.Errorf("Expected checker %s in output", name)
		}
	}
	if !strings.Contains(buf.String(), "significance_threshold") {
		t.Error("Expected unidentified_index parameters in output")
	}
}

func TestCheckersCmd_JSON(t *testing.T) {
	var buf bytes.Buffer
	cmd := checkersCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--format", "json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("checkers failed: %v", err)
	}

	var infos []checkerInfo
	if err := json.Unmarshal(buf.Bytes(), &infos); err != nil {
		t.Fatalf("Output is not JSON: %v", err)
	}
	if len(infos) != 7 {
		t.Fatalf("Expected 7 checkers, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Name == "cluster_pf" {
			if strings.Join(info.Required, ",") != "error,warning" {
				t.Errorf("Expected error and warning parameters, got %v", info.Required)
			}
			if info.Direction != "higher_is_better" {
				t.Errorf("Expected higher_is_better, got %s", info.Direction)
			}
		}
	}
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := versionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "seqgate version ") {
		t.Errorf("Unexpected version output: %q", buf.String())
	}
}

func TestVersionCmd_JSON(t *testing.T) {
	var buf bytes.Buffer
	cmd := versionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}

	var info map[string]string
	if err := json.Unmarshal(buf.Bytes(), &info); err != nil {
		t.Fatalf("Output is not JSON: %v", err)
	}
	if info["version"] == "" {
		t.Errorf("Expected a version field, got %v", info)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"check", "batch", "serve", "init", "checkers", "version"} {
		if _, _, err := root.Find([]string{name}); err != nil {
			t.Errorf("Missing subcommand %s: %v", name, err)
		}
	}
	if root.PersistentFlags().Lookup("debug") == nil {
		t.Error("Missing --debug flag")
	}
}
