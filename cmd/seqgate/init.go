package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/seqgate/internal/config"
	"github.com/ludo-technologies/seqgate/internal/constants"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate seqgate settings and QC rule files",
		Long: `Generate a documented settings file and a QC rule file for an instrument.

By default, creates .seqgate.yaml and qc_rules.yaml in the current directory.
Use --interactive for a guided setup wizard.

Examples:
  # Rules for a NovaSeq SP flow cell
  seqgate init

  # MiSeq v3 rules that fail runs on every checker
  seqgate init --instrument miseq_v3 --strictness strict

  # Overwrite existing files
  seqgate init --force

  # Interactive setup wizard
  seqgate init -i`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}

	cmd.Flags().StringP("config", "c", constants.ConfigFileName,
		"Output path for the settings file")
	cmd.Flags().StringP("qc-config", "q", constants.QCConfigFileName,
		"Output path for the QC rule file")
	cmd.Flags().String("instrument", "novaseq_SP",
		"Instrument the QC rules are generated for")
	cmd.Flags().String("strictness", string(config.StrictnessStandard),
		"Strictness of the generated rules: relaxed, standard, strict")
	cmd.Flags().String("format", config.DefaultOutputFormat,
		"Default output format written to the settings: json, yaml, text, html")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing files")
	cmd.Flags().BoolP("interactive", "i", false,
		"Interactive setup wizard")

	return cmd
}

// initOptions are the answers of the init command
type initOptions struct {
	configPath   string
	qcConfigPath string
	instrument   string
	strictness   config.Strictness
	format       string
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	qcConfigPath, _ := cmd.Flags().GetString("qc-config")
	instrument, _ := cmd.Flags().GetString("instrument")
	strictness, _ := cmd.Flags().GetString("strictness")
	format, _ := cmd.Flags().GetString("format")
	force, _ := cmd.Flags().GetBool("force")
	interactive, _ := cmd.Flags().GetBool("interactive")

	opts := initOptions{
		configPath:   configPath,
		qcConfigPath: qcConfigPath,
		instrument:   instrument,
		strictness:   config.Strictness(strictness),
		format:       format,
	}

	if interactive {
		var err error
		opts, err = runInteractiveSetup(opts)
		if err != nil {
			return err
		}
	}

	rules, err := config.GetQCRulesTemplate(opts.instrument, opts.strictness)
	if err != nil {
		return err
	}

	// The settings file references the rule file relative to itself
	qcRef := opts.qcConfigPath
	if rel, err := filepath.Rel(filepath.Dir(opts.configPath), opts.qcConfigPath); err == nil {
		qcRef = rel
	}

	files := []struct {
		path    string
		content string
	}{
		{opts.qcConfigPath, rules},
		{opts.configPath, config.GetSettingsTemplate(qcRef, opts.format)},
	}

	for _, f := range files {
		if !force {
			if _, err := os.Stat(f.path); err == nil {
				return fmt.Errorf("%s already exists. Use --force to overwrite", f.path)
			}
		}
		dir := filepath.Dir(f.path)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("directory does not exist: %s", dir)
			}
		}
	}

	out := cmd.OutOrStdout()
	for _, f := range files {
		if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.path, err)
		}

		displayPath := f.path
		if absPath, err := filepath.Abs(f.path); err == nil {
			displayPath = absPath
		}
		fmt.Fprintf(out, "Created %s\n", displayPath)
	}
	fmt.Fprintln(out, "\nRun 'seqgate check <runfolder>' to gate a run.")

	return nil
}

func runInteractiveSetup(defaults initOptions) (initOptions, error) {
	fmt.Println()
	fmt.Println("seqgate Configuration Setup")
	fmt.Println("===========================")
	fmt.Println()

	presets := config.GetInstrumentPresets()
	type instrumentItem struct {
		Label       string
		Description string
	}
	var instruments []instrumentItem
	cursor := 0
	for i, name := range config.InstrumentNames() {
		instruments = append(instruments, instrumentItem{name, presets[name].Description})
		if name == defaults.instrument {
			cursor = i
		}
	}

	instrumentPrompt := promptui.Select{
		Label:     "Which instrument and reagent kit?",
		Items:     instruments,
		CursorPos: cursor,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
			Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
			Selected: "\U00002705 {{ .Label | green }}",
		},
	}
	idx, _, err := instrumentPrompt.Run()
	if err != nil {
		return defaults, fmt.Errorf("instrument selection cancelled: %w", err)
	}
	opts := defaults
	opts.instrument = instruments[idx].Label

	fmt.Println()

	strictnessLevels := []struct {
		Label       string
		Description string
		Value       config.Strictness
	}{
		{"Standard (recommended)", "Fail on sample and undetermined yield problems", config.StrictnessStandard},
		{"Relaxed", "Warnings only, never fail a run", config.StrictnessRelaxed},
		{"Strict", "Fail on every checker", config.StrictnessStrict},
	}

	strictnessPrompt := promptui.Select{
		Label: "How strict should the QC gate be?",
		Items: strictnessLevels,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
			Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
			Selected: "\U00002705 {{ .Label | green }}",
		},
	}
	idx, _, err = strictnessPrompt.Run()
	if err != nil {
		return defaults, fmt.Errorf("strictness selection cancelled: %w", err)
	}
	opts.strictness = strictnessLevels[idx].Value

	fmt.Println()

	formatPrompt := promptui.Select{
		Label: "Default output format",
		Items: []string{"json", "yaml", "text", "html"},
	}
	_, opts.format, err = formatPrompt.Run()
	if err != nil {
		return defaults, fmt.Errorf("format selection cancelled: %w", err)
	}

	fmt.Println()

	rulesPrompt := promptui.Prompt{
		Label:   "QC rule file path",
		Default: defaults.qcConfigPath,
	}
	path, err := rulesPrompt.Run()
	if err != nil {
		return defaults, fmt.Errorf("output path input cancelled: %w", err)
	}
	if path != "" {
		opts.qcConfigPath = path
	}

	fmt.Println()
	return opts, nil
}
