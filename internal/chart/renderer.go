// Package chart renders report summaries as PNG charts.
package chart

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"expensetracker/internal/core"
	"expensetracker/internal/report"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 400

	lineColor = "#2196F3"
)

// Renderer draws the daily line chart and the category bar chart.
type Renderer struct {
	Width  int
	Height int
}

func NewRenderer() *Renderer {
	return &Renderer{Width: DefaultWidth, Height: DefaultHeight}
}

// RenderDailyChart draws daily totals over time. It returns nil without error
// when fewer than two days are available, since a single point is no trend.
func (r *Renderer) RenderDailyChart(ctx context.Context, days []core.DailySummary) (*report.Chart, error) {
	if len(days) < 2 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	xs := make([]time.Time, len(days))
	ys := make([]float64, len(days))
	for i, d := range days {
		xs[i] = d.Date.Time
		ys[i] = d.Total.InexactFloat64()
	}

	graph := gochart.Chart{
		Width:  r.Width,
		Height: r.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatterWithFormat("Jan 02"),
		},
		YAxis: gochart.YAxis{
			Range: valueRange(ys),
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    "Daily Expenses",
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeColor: hexColor(lineColor),
					StrokeWidth: 2,
					DotColor:    hexColor(lineColor),
					DotWidth:    3,
				},
			},
		},
	}
	return render("daily", graph.Render)
}

// RenderCategoryChart draws one bar per category, coloured by category.
func (r *Renderer) RenderCategoryChart(ctx context.Context, cats []core.CategorySummary) (*report.Chart, error) {
	if len(cats) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bars := make([]gochart.Value, len(cats))
	ys := make([]float64, len(cats))
	for i, c := range cats {
		ys[i] = c.Total.InexactFloat64()
		col := hexColor(c.Category.Color())
		bars[i] = gochart.Value{
			Label: c.Category.DisplayName(),
			Value: ys[i],
			Style: gochart.Style{FillColor: col, StrokeColor: col},
		}
	}

	graph := gochart.BarChart{
		Width:    r.Width,
		Height:   r.Height,
		BarWidth: 60,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40},
		},
		YAxis: gochart.YAxis{
			Range: valueRange(ys),
		},
		Bars: bars,
	}
	return render("category", graph.Render)
}

// valueRange pins the y axis to start at zero; a flat series would otherwise
// produce an empty range the library refuses to draw.
func valueRange(ys []float64) *gochart.ContinuousRange {
	top := 0.0
	for _, y := range ys {
		top = max(top, y)
	}
	if top <= 0 {
		top = 1
	}
	return &gochart.ContinuousRange{Min: 0, Max: top * 1.1}
}

func hexColor(s string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(s, "#"))
}

func render(name string, fn func(gochart.RendererProvider, io.Writer) error) (c *report.Chart, err error) {
	defer func() {
		if p := recover(); p != nil {
			c, err = nil, fmt.Errorf("render %s chart: %v", name, p)
		}
	}()
	var buf bytes.Buffer
	if err := fn(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s chart: %w", name, err)
	}
	return &report.Chart{Name: name, PNG: buf.Bytes()}, nil
}
