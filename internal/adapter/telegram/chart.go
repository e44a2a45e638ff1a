package telegram

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	chart "github.com/wcharczuk/go-chart/v2"
)

const (
	chartTitle      = "Signed posts"
	chartHeight     = 480
	chartMinWidth   = 480
	chartBarWidth   = 48
	chartBarSpacing = 32
	// Room for the y axis, its ticks and the side padding.
	chartGutter = 240
	// Telegram rejects photos wider than 20x their height.
	chartMaxBars    = 40
	chartLabelRunes = 14
)

// renderBarChart draws signed-post counts per channel as a PNG. Input is
// expected sorted by count; only the first chartMaxBars bars are drawn.
func renderBarChart(labels []string, values []int) ([]byte, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("chart: %d labels for %d values", len(labels), len(values))
	}
	if len(labels) > chartMaxBars {
		labels, values = labels[:chartMaxBars], values[:chartMaxBars]
	}
	bars := make([]chart.Value, 0, len(labels))
	maxVal := 0
	for i, label := range labels {
		maxVal = max(maxVal, values[i])
		bars = append(bars, chart.Value{Value: float64(values[i]), Label: shortLabel(label)})
	}
	// go-chart rejects a zero-height range.
	yMax := float64(max(maxVal, 1))

	graph := chart.BarChart{
		Title:      chartTitle,
		Width:      chartWidth(len(bars)),
		Height:     chartHeight,
		BarWidth:   chartBarWidth,
		BarSpacing: chartBarSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 16, Right: 16, Bottom: 8}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: yMax}},
		Bars:       bars,
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart: render %d bars: %w", len(bars), err)
	}
	return buf.Bytes(), nil
}

// chartWidth grows the canvas with the bar count so bars never overflow it.
func chartWidth(bars int) int {
	return max(chartMinWidth, bars*(chartBarWidth+chartBarSpacing)+chartGutter)
}

func shortLabel(s string) string {
	if utf8.RuneCountInString(s) <= chartLabelRunes {
		return s
	}
	r := []rune(s)
	return string(r[:chartLabelRunes-1]) + "…"
}
