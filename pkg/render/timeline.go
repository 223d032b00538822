package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/intervalidx/pkg/dataset"
	"github.com/Sumatoshi-tech/intervalidx/pkg/index"
)

const (
	timelineStack  = "span"
	timelineWidth  = "1200px"
	rowHeightPx    = 28
	minHeightPx    = 300
	spanColor      = "#5470c6"
	offsetSeries   = "offset"
	durationSeries = "length"
)

// ErrNoIntervals is returned when there is nothing to chart.
var ErrNoIntervals = errors.New("no intervals to render")

// Timeline writes an HTML page charting each match as a horizontal bar
// spanning [from, to]. Bars are stacked on an invisible offset series so
// they start at their lower endpoint, measured from the smallest endpoint.
func Timeline(w io.Writer, title string, matches []index.Match, kind dataset.Kind) error {
	bar, err := TimelineChart(title, matches, kind)
	if err != nil {
		return err
	}

	err = bar.Render(w)
	if err != nil {
		return fmt.Errorf("render timeline: %w", err)
	}

	return nil
}

// TimelineChart builds the chart rendered by Timeline.
func TimelineChart(title string, matches []index.Match, kind dataset.Kind) (*charts.Bar, error) {
	if len(matches) == 0 {
		return nil, ErrNoIntervals
	}

	base := matches[0].Interval.From()
	for _, m := range matches[1:] {
		base = min(base, m.Interval.From())
	}

	categories := make([]string, len(matches))
	offsets := make([]opts.BarData, len(matches))
	lengths := make([]opts.BarData, len(matches))

	for i, m := range matches {
		categories[i] = categoryName(kind, m)
		offsets[i] = opts.BarData{Value: m.Interval.From() - base}
		// Closed intervals: a point interval still gets a visible bar.
		lengths[i] = opts.BarData{
			Value: m.Interval.To() - m.Interval.From() + 1,
			Name:  dataset.FormatInterval(kind, m.Interval),
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     timelineWidth,
			Height:    fmt.Sprintf("%dpx", max(minHeightPx, rowHeightPx*len(matches))),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "origin " + dataset.FormatEndpoint(kind, base),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)

	bar.SetXAxis(categories)
	bar.AddSeries(offsetSeries, offsets,
		charts.WithBarChartOpts(opts.BarChart{Stack: timelineStack}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "transparent"}),
	)
	bar.AddSeries(durationSeries, lengths,
		charts.WithBarChartOpts(opts.BarChart{Stack: timelineStack}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: spanColor}),
	)
	bar.XYReversal()

	return bar, nil
}

func categoryName(kind dataset.Kind, m index.Match) string {
	if m.Name != "" {
		return m.Name
	}

	if m.Value.Value != "" {
		return m.Value.Value
	}

	return dataset.FormatInterval(kind, m.Interval)
}
