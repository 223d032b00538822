package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intervalidx/pkg/index"
	"github.com/Sumatoshi-tech/intervalidx/pkg/render"
)

const renderFilePerm = 0o600

// ErrNoOutputFile is returned when the --out flag is not set.
var ErrNoOutputFile = errors.New("output file is required (use --out)")

// NewRenderCommand creates the render subcommand.
func NewRenderCommand(opts *Options) *cobra.Command {
	var (
		outPath  string
		from, to string
		title    string
	)

	cmd := &cobra.Command{
		Use:   "render <dataset> --out timeline.html",
		Short: "Render dataset intervals as an HTML timeline",
		Long: `Render the intervals of a dataset as a horizontal bar timeline.
With --from and --to only the intervals overlapping that range are drawn.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return ErrNoOutputFile
			}

			if title == "" {
				title = filepath.Base(args[0])
			}

			return withIndex(cmd.Context(), opts, args[0], func(ctx context.Context, ix *index.Index) error {
				matches := ix.Entries(ctx)

				if from != "" || to != "" {
					var err error

					matches, err = runQuery(ctx, ix, queryFlags{from: from, to: to})
					if err != nil {
						return err
					}
				}

				return writeTimeline(outPath, title, matches, ix)
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output HTML file")
	cmd.Flags().StringVar(&from, "from", "", "only render intervals overlapping [from, to]")
	cmd.Flags().StringVar(&to, "to", "", "only render intervals overlapping [from, to]")
	cmd.Flags().StringVar(&title, "title", "", "chart title (default: dataset file name)")

	return cmd
}

func writeTimeline(path, title string, matches []index.Match, ix *index.Index) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, renderFilePerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	renderErr := render.Timeline(f, title, matches, ix.Kind())

	closeErr := f.Close()

	if renderErr != nil {
		return renderErr
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}

	return nil
}
