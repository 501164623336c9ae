package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/service"
)

func serveCmd() *cobra.Command {
	var (
		flags         qcFlags
		port          int
		maxConcurrent int
	)

	cmd := &cobra.Command{
		Use:   "serve [monitor path]",
		Short: "Serve QC reports over HTTP",
		Long: `Start an HTTP server answering GET /<runfolder> with the QC view of the
runfolder found below the monitor path.

Query parameters:
  use_closest_read_length=true   fall back to the closest read length
  downgrade=<checker>[,...]      report errors of a checker as warnings
  view=<view>                    illumina_view, basic_view or full_view

Examples:
  seqgate serve /data/runs
  seqgate serve --port 8080 --max-concurrent 4 /data/runs`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			rt, err := loadRuntime(&flags, target)
			if err != nil {
				return exitFor(err)
			}

			monitorPath := rt.cfg.Server.MonitorPath
			if target != "" {
				monitorPath = target
			}
			if info, err := os.Stat(monitorPath); err != nil || !info.IsDir() {
				return exitFor(domain.NewFileNotFoundError(monitorPath, err))
			}
			if !cmd.Flags().Changed("port") {
				port = rt.cfg.Server.Port
			}
			if !cmd.Flags().Changed("max-concurrent") {
				maxConcurrent = rt.cfg.Server.MaxConcurrentRequests
			}

			server := service.NewServer(service.ServerOptions{
				MonitorPath:   monitorPath,
				MaxConcurrent: maxConcurrent,
				Defaults:      rt.opts,
				Loader:        rt.loader,
				Reporter:      rt.reporter,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := server.ListenAndServe(ctx, fmt.Sprintf(":%d", port)); err != nil {
				return exitFor(err)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from settings)")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 0,
		"Runs evaluated at once (default from settings)")

	return cmd
}
