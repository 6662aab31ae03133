// Package charts renders the savings analytics chart sent by the bot.
package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/wealthplanner/budget_bot/internal/model"
)

// ChartGenerator renders report charts as PNG bytes.
type ChartGenerator struct{}

// NewChartGenerator creates a new chart generator.
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{}
}

// SavingsTrend draws the monthly savings bars for one year. Months at or
// above the monthly goal are green, the rest muted. Returns nil when the
// year has no savings yet.
func (g *ChartGenerator) SavingsTrend(summary *model.SavingsSummary) ([]byte, error) {
	if summary == nil || len(summary.ChartValues) == 0 {
		return nil, nil
	}

	var maxValue float64
	for _, v := range summary.ChartValues {
		if v > maxValue {
			maxValue = v
		}
	}
	if maxValue == 0 {
		return nil, nil
	}

	goal, _ := summary.MonthlyGoal.Float64()

	bars := make([]chart.Value, 0, len(summary.ChartValues))
	for i, v := range summary.ChartValues {
		label := ""
		if i < len(summary.ChartLabels) {
			label = summary.ChartLabels[i]
		}
		style := chart.Style{
			FillColor:   drawing.ColorFromHex("9e9e9e"),
			StrokeColor: drawing.ColorFromHex("9e9e9e"),
			StrokeWidth: 0,
		}
		if goal > 0 && v >= goal {
			style.FillColor = drawing.ColorFromHex("2e7d32")
			style.StrokeColor = style.FillColor
		}
		bars = append(bars, chart.Value{Label: label, Value: v, Style: style})
	}

	graph := chart.BarChart{
		Title:  fmt.Sprintf("Savings %d", summary.CurrentYear),
		Width:  900,
		Height: 450,
		Background: chart.Style{
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			FillColor: chart.ColorWhite,
		},
		BarWidth: 50,
		XAxis: chart.Style{
			FontSize:  11,
			FontColor: chart.ColorBlack,
		},
		YAxis: chart.YAxis{
			Style: chart.Style{
				FontSize:  11,
				FontColor: chart.ColorBlack,
			},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render savings chart: %w", err)
	}
	return buf.Bytes(), nil
}
