package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intervalidx/internal/observability"
	"github.com/Sumatoshi-tech/intervalidx/pkg/dataset"
)

// NewCheckCommand creates the check subcommand.
func NewCheckCommand(opts *Options) *cobra.Command {
	var nocolor bool

	cmd := &cobra.Command{
		Use:   "check [dataset]",
		Short: "Load a dataset and verify the interval tree invariants",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setColor(nocolor)

			e, err := newEnv(opts, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer e.close()

			path := e.datasetPath(args)
			if path == "" {
				return ErrNoDataset
			}

			ix, err := e.openIndex(cmd.Context(), path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			stats := ix.Stats()

			checkErr := ix.Check(cmd.Context())
			if checkErr != nil {
				fmt.Fprintf(out, "%s %s: %v\n", color.RedString("FAIL"), path, checkErr)

				return checkErr
			}

			fmt.Fprintf(out, "%s %s: %s intervals, kind %s, height %d\n",
				color.GreenString("OK"), path, humanize.Comma(int64(stats.Size)), stats.Kind, stats.Height)

			return nil
		},
	}

	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

// NewValidateCommand creates the validate subcommand.
func NewValidateCommand(opts *Options) *cobra.Command {
	var nocolor bool

	cmd := &cobra.Command{
		Use:   "validate <dataset>...",
		Short: "Validate datasets against the dataset schema",
		Long: `Validate one or more dataset files (.yaml, .yml, .json, optionally .lz4
compressed) against the embedded JSON schema and convert every record.
Use --print-schema to dump the schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setColor(nocolor)

			out := cmd.OutOrStdout()

			if printSchema, _ := cmd.Flags().GetBool("print-schema"); printSchema {
				_, err := out.Write(dataset.Schema())
				if err != nil {
					return fmt.Errorf("write schema: %w", err)
				}

				return nil
			}

			if len(args) == 0 {
				return ErrNoDataset
			}

			e, err := newEnv(opts, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer e.close()

			failed := 0

			for _, path := range args {
				ds, loadErr := e.loadDataset(path)
				if loadErr != nil {
					failed++

					fmt.Fprintf(out, "%s %s: %v\n", color.RedString("INVALID"), path, loadErr)

					continue
				}

				fmt.Fprintf(out, "%s %s: %s records, kind %s\n",
					color.GreenString("VALID"), path, humanize.Comma(int64(len(ds.Entries))), ds.Kind)
			}

			if failed > 0 {
				return fmt.Errorf("%w: %d of %d datasets", dataset.ErrInvalidRecord, failed, len(args))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")
	cmd.Flags().Bool("print-schema", false, "print the dataset JSON schema and exit")

	return cmd
}

func setColor(nocolor bool) {
	if nocolor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}
}
