package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/grailbio/base/log"
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/seqgate/app"
	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/internal/config"
	"github.com/ludo-technologies/seqgate/service"
)

func batchCmd() *cobra.Command {
	var (
		flags          qcFlags
		format         string
		outputPath     string
		maxGoroutines  int
		timeout        time.Duration
		ignorePatterns []string
		noProgress     bool
	)

	cmd := &cobra.Command{
		Use:   "batch <dir>...",
		Short: "Gate every runfolder below the given directories",
		Long: `Find runfolders holding a QC data bundle below the given directories and
gate them concurrently. The exit status is the worst status of all runs.

Examples:
  # Gate every run below /data/runs, skipping archived ones
  seqgate batch --ignore 'archive/' /data/runs

  # Eight runs at a time, YAML output
  seqgate batch --max-goroutines 8 -f yaml /data/runs`,
		Args:          cobra.MinimumNArgs(1),
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
			switch domain.OutputFormat(format) {
			case domain.OutputFormatJSON, domain.OutputFormatYAML, domain.OutputFormatText, domain.OutputFormatHTML:
			default:
				return exitFor(domain.NewUnsupportedFormatError(format))
			}

			perf := rt.cfg.Performance
			if cmd.Flags().Changed("max-goroutines") {
				perf.MaxGoroutines = maxGoroutines
			}
			if cmd.Flags().Changed("timeout") {
				perf.TimeoutSeconds = int(timeout.Seconds())
			}
			patterns := append(append([]string{}, rt.cfg.Batch.IgnorePatterns...), ignorePatterns...)

			progress := service.NewProgressManager(!noProgress)
			defer progress.Close()

			executor := service.NewParallelExecutorWithProgress(&perf, progress)
			files := app.NewFileHelper(rt.cfg.Batch.DataFileNames, patterns)
			check := app.NewCheckUseCase(rt.loader, rt.reporter, nil)
			uc := app.NewBatchUseCase(check, executor, files)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			result, err := uc.Execute(ctx, app.BatchRequest{Paths: args, Options: rt.opts})
			if err != nil {
				return exitFor(err)
			}
			log.Debug.Printf("batch: %d runfolders, %d failed to load", len(result.Runfolders), len(result.Errors))

			w, closeOutput, err := openOutput(outputPath)
			if err != nil {
				return exitFor(err)
			}
			formatter := service.NewOutputFormatter(useColor(rt.cfg, domain.OutputFormat(format), outputPath, false))
			werr := formatter.WriteBatch(&service.BatchResultJSON{
				ExitStatus: result.ExitStatus,
				Runs:       result.Runs,
				Errors:     result.ErrorMessages(),
			}, domain.OutputFormat(format), w)
			if cerr := closeOutput(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				return exitFor(domain.NewOutputError("failed to write batch result", werr))
			}

			if result.ExitStatus != domain.ExitPass {
				return &CheckExitError{Code: result.ExitStatus}
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", config.DefaultOutputFormat,
		"Output format: json, yaml, text, html")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "-",
		"Output file, .gz/.xz/.zst are compressed")
	cmd.Flags().IntVarP(&maxGoroutines, "max-goroutines", "j", config.DefaultMaxGoroutines,
		"Number of runfolders checked at once")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Duration(config.DefaultTimeoutSeconds)*time.Second,
		"Time limit for the whole batch")
	cmd.Flags().StringSliceVar(&ignorePatterns, "ignore", nil,
		"Gitignore style patterns of paths to skip")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}
