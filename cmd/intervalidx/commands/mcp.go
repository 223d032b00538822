package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intervalidx/internal/observability"
	"github.com/Sumatoshi-tech/intervalidx/pkg/mcp"
	"github.com/Sumatoshi-tech/intervalidx/pkg/version"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(opts *Options) *cobra.Command {
	var diagnosticsAddr string

	cmd := &cobra.Command{
		Use:   "mcp [dataset]",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the interval index as tools that AI agents can
discover and invoke:
  - interval_find: exact lookup of [from, to]
  - interval_overlaps: intervals overlapping [from, to], with label selector
  - interval_point: intervals containing a point
  - interval_put: store a value under [from, to]
  - interval_stats: index size and tree height`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(opts, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer e.close()

			ix, err := e.openIndex(cmd.Context(), e.datasetPath(args))
			if err != nil {
				return err
			}

			if diagnosticsAddr != "" {
				diag, diagErr := observability.NewDiagnosticsServer(cmd.Context(), observability.DiagnosticsOptions{
					Addr:           diagnosticsAddr,
					Version:        version.Version,
					MetricsHandler: e.providers.MetricsHandler,
					Checks:         []observability.ReadyCheck{ix.Check},
					Logger:         e.logger,
				})
				if diagErr != nil {
					return diagErr
				}

				defer func() {
					closeErr := diag.Close(context.WithoutCancel(cmd.Context()))
					if closeErr != nil {
						e.logger.Warn("diagnostics shutdown failed", "error", closeErr)
					}
				}()

				e.logger.Info("diagnostics listening", "addr", diag.Addr())
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:  e.logger,
				Metrics: e.metrics,
				Tracer:  e.providers.Tracer,
				Index:   ix,
			})

			return srv.Run(cmd.Context(), nil)
		},
	}

	cmd.Flags().StringVar(&diagnosticsAddr, "diagnostics-addr", "", "serve /healthz, /readyz and /metrics on this address")

	return cmd
}
