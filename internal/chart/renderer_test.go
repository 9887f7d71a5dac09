package chart

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"expensetracker/internal/core"
)

func days(totals ...string) []core.DailySummary {
	out := make([]core.DailySummary, len(totals))
	for i, t := range totals {
		out[i] = core.DailySummary{Date: core.NewDate(2024, 1, 1+i), Total: core.MustMoney(t), Count: 1}
	}
	return out
}

func TestRenderDailyChart(t *testing.T) {
	r := NewRenderer()
	c, err := r.RenderDailyChart(context.Background(), days("10", "25.5", "7"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if c == nil {
		t.Fatalf("expected a chart")
	}
	img, err := png.Decode(bytes.NewReader(c.PNG))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != DefaultWidth || b.Dy() != DefaultHeight {
		t.Fatalf("unexpected size %v", b)
	}
}

func TestRenderDailyChartNeedsTwoDays(t *testing.T) {
	r := NewRenderer()
	for _, in := range [][]core.DailySummary{nil, days("10")} {
		c, err := r.RenderDailyChart(context.Background(), in)
		if err != nil || c != nil {
			t.Fatalf("expected no chart for %d days, got %v %v", len(in), c, err)
		}
	}
}

func TestRenderDailyChartFlatSeries(t *testing.T) {
	c, err := NewRenderer().RenderDailyChart(context.Background(), days("5", "5"))
	if err != nil || c == nil {
		t.Fatalf("flat series should render, got %v", err)
	}
}

func TestRenderCategoryChart(t *testing.T) {
	cats := []core.CategorySummary{
		{Category: core.Travel, Total: core.MustMoney("30"), Count: 1},
		{Category: core.Staff, Total: core.MustMoney("20"), Count: 1},
		{Category: core.Food, Total: core.MustMoney("10"), Count: 1},
	}
	c, err := NewRenderer().RenderCategoryChart(context.Background(), cats)
	if err != nil || c == nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(c.PNG)); err != nil {
		t.Fatalf("decode: %v", err)
	}

	c, err = NewRenderer().RenderCategoryChart(context.Background(), nil)
	if err != nil || c != nil {
		t.Fatalf("expected no chart for empty categories")
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRenderer().RenderDailyChart(ctx, days("1", "2")); err == nil {
		t.Fatalf("expected context error")
	}
}
