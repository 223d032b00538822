package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intervalidx/internal/observability"
	"github.com/Sumatoshi-tech/intervalidx/pkg/server"
)

// NewServeCommand creates the serve subcommand.
func NewServeCommand(opts *Options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [dataset]",
		Short: "Serve the interval HTTP API",
		Long: `Start the HTTP JSON API over an index loaded from a dataset (or the
index.dataset setting). Without a dataset the index starts empty and is
filled through POST /v1/intervals.

Endpoints:
  GET    /v1/find?from=&to=
  GET    /v1/overlaps?from=&to=&selector=&any=
  GET    /v1/point?at=
  GET    /v1/intervals
  POST   /v1/intervals
  DELETE /v1/intervals?from=&to=
  GET    /v1/stats
  GET    /healthz, /readyz, /metrics`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(opts, observability.ModeServe)
			if err != nil {
				return err
			}
			defer e.close()

			ix, err := e.openIndex(cmd.Context(), e.datasetPath(args))
			if err != nil {
				return err
			}

			listen := addr
			if listen == "" {
				listen = e.cfg.Server.Addr()
			}

			srv := server.New(ix, server.Options{
				Addr:            listen,
				ReadTimeout:     e.cfg.Server.ReadTimeout,
				WriteTimeout:    e.cfg.Server.WriteTimeout,
				IdleTimeout:     e.cfg.Server.IdleTimeout,
				ShutdownTimeout: e.cfg.Server.ShutdownTimeout,
				MetricsHandler:  e.providers.MetricsHandler,
			}, server.Deps{Logger: e.logger, Tracer: e.providers.Tracer})

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.host:server.port)")

	return cmd
}
