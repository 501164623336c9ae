package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/seqgate/app"
	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/internal/config"
	"github.com/ludo-technologies/seqgate/service"
)

// CheckExitError carries the process exit status of a QC command
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

// exitFor wraps err with the exit status it maps to
func exitFor(err error) error {
	return &CheckExitError{Code: app.ExitStatusFor(err), Message: err.Error()}
}

// qcFlags are shared by check, batch and serve
type qcFlags struct {
	configPath           string
	qcConfigPath         string
	useClosestReadLength bool
	downgradeErrorsFor   []string
	view                 string
}

func (f *qcFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "",
		"Path to the seqgate settings file")
	cmd.Flags().StringVarP(&f.qcConfigPath, "qc-config", "q", "",
		"Path to the QC rule file (default: built-in rules)")
	cmd.Flags().BoolVar(&f.useClosestReadLength, "use-closest-read-length", false,
		"Use the closest read-length rule set when none matches exactly")
	cmd.Flags().StringSliceVar(&f.downgradeErrorsFor, "downgrade-errors-for", nil,
		"Checkers whose errors are reported as warnings")
	cmd.Flags().StringVar(&f.view, "view", "",
		"View used to render reports: illumina_view, basic_view, full_view")
}

func (f *qcFlags) options() domain.GatherOptions {
	return domain.GatherOptions{
		UseClosestReadLength: f.useClosestReadLength,
		DowngradeErrorsFor:   f.downgradeErrorsFor,
		View:                 f.view,
	}
}

// runtime is everything a QC command needs once settings are loaded
type runtime struct {
	cfg      *config.Config
	opts     domain.GatherOptions
	reporter *service.Reporter
	loader   *service.QCDataLoaderImpl
}

func loadRuntime(f *qcFlags, target string) (*runtime, error) {
	loader := service.NewConfigurationLoader()

	cfg, err := loader.LoadSettings(f.configPath, target)
	if err != nil {
		return nil, err
	}

	qcPath := f.qcConfigPath
	if qcPath == "" {
		qcPath = cfg.QC.ConfigPath
	}
	rules, err := loader.LoadQCRules(qcPath)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:      cfg,
		opts:     loader.MergeOptions(cfg, f.options()),
		reporter: service.NewReporter(rules),
		loader:   service.NewQCDataLoader(cfg.Batch.DataFileNames),
	}, nil
}

// openOutput returns stdout for "" and "-", a possibly compressed file otherwise
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	w, err := xopen.Wopen(path)
	if err != nil {
		return nil, nil, domain.NewOutputError(fmt.Sprintf("cannot create %s", path), err)
	}
	return w, w.Close, nil
}

// useColor enables colours for text written to a colour capable terminal
func useColor(cfg *config.Config, format domain.OutputFormat, outputPath string, noColor bool) bool {
	if noColor || !cfg.Output.Color || format != domain.OutputFormatText {
		return false
	}
	return (outputPath == "" || outputPath == "-") && !color.NoColor
}

func checkCmd() *cobra.Command {
	var (
		flags           qcFlags
		samplesheetPath string
		format          string
		outputPath      string
		noColor         bool
	)

	cmd := &cobra.Command{
		Use:   "check <runfolder|qc_data file>",
		Short: "Gate one sequencing run",
		Long: `Evaluate the QC data of one run against the QC rules for its instrument
and read length, and print the findings.

Examples:
  # Check a runfolder holding qc_data.json
  seqgate check /data/runs/200624_A00834_0183_BHMTFYDRXX

  # Fall back to the closest read length and report reads_per_sample errors as warnings
  seqgate check --use-closest-read-length --downgrade-errors-for reads_per_sample run/

  # Human readable output
  seqgate check --format text run/qc_data.json.gz`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(&flags, args[0])
			if err != nil {
				return exitFor(err)
			}

			if !cmd.Flags().Changed("format") {
				format = rt.cfg.Output.Format
			}

			req := domain.CheckRequest{
				DataPath:        args[0],
				SamplesheetPath: samplesheetPath,
				QCConfigPath:    flags.qcConfigPath,
				Options:         rt.opts,
				OutputFormat:    domain.OutputFormat(format),
			}
			if err := service.NewConfigurationLoader().ValidateRequest(&req); err != nil {
				return exitFor(err)
			}

			formatter := service.NewOutputFormatter(useColor(rt.cfg, req.OutputFormat, outputPath, noColor))
			uc := app.NewCheckUseCase(rt.loader, rt.reporter, formatter)

			// the output is opened only once there is a report to write
			result, err := uc.Execute(context.Background(), req)
			if err != nil {
				return exitFor(err)
			}

			w, closeOutput, err := openOutput(outputPath)
			if err != nil {
				return exitFor(err)
			}
			err = formatter.Write(result, req.OutputFormat, w)
			if cerr := closeOutput(); err == nil && cerr != nil {
				err = cerr
			}
			if err != nil {
				return exitFor(domain.NewOutputError("failed to write QC report", err))
			}
			if result.ExitStatus != domain.ExitPass {
				return &CheckExitError{Code: result.ExitStatus}
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&samplesheetPath, "samplesheet", "s", "",
		"SampleSheet.csv replacing the samplesheet of the QC data")
	cmd.Flags().StringVarP(&format, "format", "f", config.DefaultOutputFormat,
		"Output format: json, yaml, text, html")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "-",
		"Output file, .gz/.xz/.zst are compressed")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colours in text output")

	return cmd
}
