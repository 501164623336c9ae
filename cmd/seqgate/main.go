package main

import (
	"fmt"
	"os"

	"github.com/grailbio/base/log"
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/seqgate/internal/version"
	"github.com/ludo-technologies/seqgate/service"
)

var (
	// Version information (set via ldflags during build)
	Version = version.Version
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Handle custom exit codes from the QC commands
		if exitErr, ok := err.(*CheckExitError); ok {
			if exitErr.Message != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "seqgate",
		Short: "seqgate - sequencing run QC gate",
		Long: `seqgate evaluates the QC metrics of Illumina sequencing runs against
per-instrument rules and decides whether a run passes.

Exit codes:
  0 - run passed (warnings allowed)
  1 - at least one fatal QC finding
  2 - operational or configuration error
  3 - no QC rules match the instrument and read length`,
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFlags(log.Ldate | log.Ltime)
			if debug {
				log.SetLevel(log.Debug)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(checkersCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			asJSON, _ := cmd.Flags().GetBool("json")
			switch {
			case asJSON:
				_ = service.WriteJSON(cmd.OutOrStdout(), version.GetInfo())
			case verbose:
				fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "seqgate version %s\n", version.GetVersion())
			}
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Show detailed version information")
	cmd.Flags().Bool("json", false, "Print version information as JSON")
	return cmd
}
