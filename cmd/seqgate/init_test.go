package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/seqgate/internal/config"
)

func runInitCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := initCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestInitCommand_CreatesFiles(t *testing.T) {
	tmpDir := t.TempDir()
	settingsPath := filepath.Join(tmpDir, ".seqgate.yaml")
	rulesPath := filepath.Join(tmpDir, "qc_rules.yaml")

	out, err := runInitCmd(t, "--config", settingsPath, "--qc-config", rulesPath)
	if err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if strings.Count(out, "Created ") != 2 {
		t.Errorf("Expected two created files, got:\n%s", out)
	}

	settings, err := os.ReadFile(settingsPath)
	if err != nil {
		t.Fatalf("Failed to read settings: %v", err)
	}
	if !strings.Contains(string(settings), `config_path: "qc_rules.yaml"`) {
		t.Errorf("Settings should reference the rule file relative to itself:\n%s", settings)
	}

	rules, err := config.LoadQCConfig(rulesPath)
	if err != nil {
		t.Fatalf("Generated rules do not load: %v", err)
	}
	if rules == nil {
		t.Fatal("Expected rules")
	}

	cfg, err := config.LoadConfig(settingsPath)
	if err != nil {
		t.Fatalf("Generated settings do not load: %v", err)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Expected json output format, got %s", cfg.Output.Format)
	}
}

func TestInitCommand_InstrumentAndStrictness(t *testing.T) {
	tmpDir := t.TempDir()
	rulesPath := filepath.Join(tmpDir, "rules.yaml")

	_, err := runInitCmd(t,
		"--config", filepath.Join(tmpDir, "settings.yaml"),
		"--qc-config", rulesPath,
		"--instrument", "miseq_v3",
		"--strictness", "strict")
	if err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	content, err := os.ReadFile(rulesPath)
	if err != nil {
		t.Fatalf("Failed to read rules: %v", err)
	}
	if !strings.Contains(string(content), "miseq_v3:") {
		t.Errorf("Expected miseq_v3 rules:\n%s", content)
	}
}

func TestInitCommand_UnknownInstrument(t *testing.T) {
	tmpDir := t.TempDir()
	settingsPath := filepath.Join(tmpDir, "settings.yaml")

	_, err := runInitCmd(t,
		"--config", settingsPath,
		"--qc-config", filepath.Join(tmpDir, "rules.yaml"),
		"--instrument", "hiseq_x")
	if err == nil {
		t.Fatal("Expected error for unknown instrument")
	}
	if _, statErr := os.Stat(settingsPath); !os.IsNotExist(statErr) {
		t.Error("No file should be written on error")
	}
}

func TestInitCommand_ForceOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	settingsPath := filepath.Join(tmpDir, ".seqgate.yaml")
	rulesPath := filepath.Join(tmpDir, "qc_rules.yaml")

	if err := os.WriteFile(rulesPath, []byte("existing: true\n"), 0644); err != nil {
		t.Fatalf("Failed to create existing file: %v", err)
	}

	_, err := runInitCmd(t, "--config", settingsPath, "--qc-config", rulesPath)
	if err == nil {
		t.Fatal("Expected error when file exists without --force")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected 'already exists' error, got: %v", err)
	}
	if _, statErr := os.Stat(settingsPath); !os.IsNotExist(statErr) {
		t.Error("Settings should not be written when the rule file exists")
	}

	if _, err := runInitCmd(t, "--config", settingsPath, "--qc-config", rulesPath, "--force"); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	content, err := os.ReadFile(rulesPath)
	if err != nil {
		t.Fatalf("Failed to read rules: %v", err)
	}
	if !strings.Contains(string(content), "default_handlers") {
		t.Error("Rule file was not overwritten")
	}
}

func TestInitCommand_MissingDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := runInitCmd(t,
		"--config", filepath.Join(tmpDir, "nope", "settings.yaml"),
		"--qc-config", filepath.Join(tmpDir, "rules.yaml"))
	if err == nil || !strings.Contains(err.Error(), "directory does not exist") {
		t.Errorf("Expected missing directory error, got: %v", err)
	}
}
