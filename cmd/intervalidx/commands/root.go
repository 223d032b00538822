// Package commands implements CLI command handlers for intervalidx.
package commands

import (
	"github.com/spf13/cobra"
)

// Options holds the persistent root flags shared by every subcommand.
type Options struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

// NewRootCommand builds the intervalidx command tree. Extra commands are
// attached as-is.
func NewRootCommand(extra ...*cobra.Command) *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "intervalidx",
		Short: "Interval index - overlap queries over integer, IPv4 and time ranges",
		Long: `intervalidx loads interval datasets into an augmented interval tree and
answers exact and overlap queries from the command line, over HTTP, or as an
MCP server.

Commands:
  query     Exact or overlap lookup against a dataset
  point     Intervals containing a single point
  check     Load a dataset and verify the tree invariants
  validate  Check a dataset against its schema
  render    Write an HTML timeline of a dataset
  serve     Serve the HTTP API
  mcp       Serve MCP tools on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default: ./intervalidx.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(
		NewQueryCommand(opts),
		NewPointCommand(opts),
		NewCheckCommand(opts),
		NewValidateCommand(opts),
		NewRenderCommand(opts),
		NewServeCommand(opts),
		NewMCPCommand(opts),
	)

	rootCmd.AddCommand(extra...)

	return rootCmd
}
