package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intervalidx/internal/observability"
	"github.com/Sumatoshi-tech/intervalidx/pkg/dataset"
	"github.com/Sumatoshi-tech/intervalidx/pkg/index"
	"github.com/Sumatoshi-tech/intervalidx/pkg/render"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

var (
	// ErrUnknownOutputFormat is returned for an unsupported --format value.
	ErrUnknownOutputFormat = errors.New("unknown output format")
	// ErrConflictingModes is returned when --any and --exact are combined.
	ErrConflictingModes = errors.New("--any and --exact are mutually exclusive")
	// ErrSelectorWithExact is returned when --selector is combined with --exact.
	ErrSelectorWithExact = errors.New("--selector does not apply to --exact lookups")
)

type queryFlags struct {
	from, to string
	selector string
	format   string
	anyHit   bool
	exact    bool
}

// NewQueryCommand creates the query subcommand.
func NewQueryCommand(opts *Options) *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "query <dataset> --from X --to Y",
		Short: "Find intervals overlapping [from, to] in a dataset",
		Long: `Load a dataset and list the stored intervals overlapping [from, to].

Endpoints use the dataset kind: integers, IPv4 addresses or RFC 3339
timestamps. --exact looks up exactly [from, to]; --any stops at the
lowest matching overlap. --selector filters --any and overlap results by labels (e.g. "site=berlin,tier!=dev").`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.anyHit && flags.exact {
				return ErrConflictingModes
			}

			if flags.exact && flags.selector != "" {
				return ErrSelectorWithExact
			}

			return withIndex(cmd.Context(), opts, args[0], func(ctx context.Context, ix *index.Index) error {
				matches, err := runQuery(ctx, ix, flags)
				if err != nil {
					return err
				}

				return writeMatches(cmd.OutOrStdout(), matches, ix.Kind(), flags.format)
			})
		},
	}

	cmd.Flags().StringVar(&flags.from, "from", "", "lower endpoint, inclusive")
	cmd.Flags().StringVar(&flags.to, "to", "", "upper endpoint, inclusive")
	cmd.Flags().StringVarP(&flags.selector, "selector", "l", "", "label selector")
	cmd.Flags().StringVarP(&flags.format, "format", "o", FormatTable, "output format: table or json")
	cmd.Flags().BoolVar(&flags.anyHit, "any", false, "return at most one overlapping interval")
	cmd.Flags().BoolVar(&flags.exact, "exact", false, "exact lookup instead of overlap")

	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runQuery(ctx context.Context, ix *index.Index, flags queryFlags) ([]index.Match, error) {
	iv, err := ix.ParseInterval(flags.from, flags.to)
	if err != nil {
		return nil, err
	}

	switch {
	case flags.exact:
		match, ok, findErr := ix.Find(ctx, iv)

		return single(match, ok), findErr
	case flags.anyHit:
		match, ok, anyErr := ix.Any(ctx, iv, flags.selector)

		return single(match, ok), anyErr
	default:
		return ix.Overlaps(ctx, iv, flags.selector)
	}
}

// NewPointCommand creates the point subcommand.
func NewPointCommand(opts *Options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "point <dataset> <at>",
		Short: "List intervals containing a point",
		Args:  cobra.ExactArgs(2), //nolint:mnd // dataset and point.
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIndex(cmd.Context(), opts, args[0], func(ctx context.Context, ix *index.Index) error {
				at, err := dataset.ParseEndpoint(ix.Kind(), args[1])
				if err != nil {
					return err
				}

				matches, err := ix.Point(ctx, at)
				if err != nil {
					return err
				}

				return writeMatches(cmd.OutOrStdout(), matches, ix.Kind(), format)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", FormatTable, "output format: table or json")

	return cmd
}

func withIndex(ctx context.Context, opts *Options, path string, fn func(context.Context, *index.Index) error) error {
	e, err := newEnv(opts, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer e.close()

	ix, err := e.openIndex(ctx, path)
	if err != nil {
		return err
	}

	return fn(ctx, ix)
}

func single(match index.Match, ok bool) []index.Match {
	if !ok {
		return []index.Match{}
	}

	return []index.Match{match}
}

// matchJSON is the json output row.
type matchJSON struct {
	From   string            `json:"from"`
	To     string            `json:"to"`
	Name   string            `json:"name,omitempty"`
	Value  string            `json:"value,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

func writeMatches(w io.Writer, matches []index.Match, kind dataset.Kind, format string) error {
	switch format {
	case FormatTable, "":
		return render.Table(w, matches, kind)
	case FormatJSON:
		rows := make([]matchJSON, 0, len(matches))
		for _, m := range matches {
			rows = append(rows, matchJSON{
				From:   dataset.FormatEndpoint(kind, m.Interval.From()),
				To:     dataset.FormatEndpoint(kind, m.Interval.To()),
				Name:   m.Name,
				Value:  m.Value.Value,
				Labels: m.Labels,
			})
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(rows)
		if err != nil {
			return fmt.Errorf("encode matches: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutputFormat, format)
	}
}
