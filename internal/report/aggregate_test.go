package report

import (
	"testing"
	"time"

	"expensetracker/internal/core"
)

func exp(title, amount string, cat core.Category, date core.Date) core.Expense {
	return core.Expense{
		ID:        title,
		Title:     title,
		Amount:    core.MustMoney(amount),
		Category:  cat,
		Timestamp: date.Add(9 * time.Hour),
		Date:      date,
	}
}

func TestAggregateScenario(t *testing.T) {
	d1, d2 := core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 2)
	p := Aggregate([]core.Expense{
		exp("F", "10", core.Food, d1),
		exp("S", "20", core.Staff, d1),
		exp("T", "30", core.Travel, d2),
	})

	if !p.Total.Equal(core.MustMoney("60")) || p.Count != 3 {
		t.Fatalf("unexpected totals %s/%d", p.Total, p.Count)
	}
	if !p.AverageDaily.Equal(core.MustMoney("30")) {
		t.Fatalf("average = %s, want 30", p.AverageDaily)
	}

	wantDaily := []struct {
		date  core.Date
		total string
		count int
	}{{d1, "30", 2}, {d2, "30", 1}}
	if len(p.Daily) != len(wantDaily) {
		t.Fatalf("expected %d daily rows, got %d", len(wantDaily), len(p.Daily))
	}
	for i, w := range wantDaily {
		got := p.Daily[i]
		if !got.Date.Equal(w.date) || !got.Total.Equal(core.MustMoney(w.total)) || got.Count != w.count {
			t.Fatalf("daily[%d] = %s %s %d", i, got.Date, got.Total, got.Count)
		}
		if len(got.Expenses) != got.Count {
			t.Fatalf("daily[%d] carries %d expenses, want %d", i, len(got.Expenses), got.Count)
		}
	}

	wantCats := []core.Category{core.Travel, core.Staff, core.Food}
	for i, c := range wantCats {
		if p.Categories[i].Category != c {
			t.Fatalf("categories[%d] = %s, want %s", i, p.Categories[i].Category, c)
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	p := Aggregate(nil)
	if !p.Total.IsZero() || !p.AverageDaily.IsZero() || p.Count != 0 {
		t.Fatalf("expected zeros, got %+v", p)
	}
	if p.Daily == nil || p.Categories == nil || len(p.Daily) != 0 || len(p.Categories) != 0 {
		t.Fatalf("expected empty non-nil summary lists")
	}
}

func TestAggregateSingleDayAverageIsTotal(t *testing.T) {
	d := core.NewDate(2024, 5, 1)
	p := Aggregate([]core.Expense{exp("a", "12.50", core.Food, d), exp("b", "7.25", core.Utility, d)})
	if !p.AverageDaily.Equal(p.Total) {
		t.Fatalf("average %s != total %s", p.AverageDaily, p.Total)
	}
}

func TestAggregateAverageSpansGapDays(t *testing.T) {
	// only the first and last dates with expenses bound the divisor
	p := Aggregate([]core.Expense{
		exp("a", "40", core.Food, core.NewDate(2024, 1, 1)),
		exp("b", "40", core.Food, core.NewDate(2024, 1, 4)),
	})
	if !p.AverageDaily.Equal(core.MustMoney("20")) {
		t.Fatalf("average = %s, want 20", p.AverageDaily)
	}
}

func TestAggregateOrderingIndependentOfInput(t *testing.T) {
	days := []core.Date{core.NewDate(2024, 3, 3), core.NewDate(2024, 1, 9), core.NewDate(2024, 2, 1), core.NewDate(2023, 12, 31)}
	var in []core.Expense
	for i, d := range days {
		in = append(in, exp(string(rune('a'+i)), "1.10", core.Staff, d))
	}
	p := Aggregate(in)
	for i := 1; i < len(p.Daily); i++ {
		if !p.Daily[i-1].Date.Before(p.Daily[i].Date) {
			t.Fatalf("daily not ascending at %d: %s >= %s", i, p.Daily[i-1].Date, p.Daily[i].Date)
		}
	}
}

func TestAggregateCategoryTiesKeepDiscoveryOrder(t *testing.T) {
	d := core.NewDate(2024, 1, 1)
	p := Aggregate([]core.Expense{
		exp("u", "5", core.Utility, d),
		exp("f", "5", core.Food, d),
		exp("s", "9", core.Staff, d),
		exp("t", "5", core.Travel, d),
	})
	want := []core.Category{core.Staff, core.Utility, core.Food, core.Travel}
	for i, c := range want {
		if p.Categories[i].Category != c {
			t.Fatalf("categories[%d] = %s, want %s", i, p.Categories[i].Category, c)
		}
	}
}

func TestAggregateSumsAgree(t *testing.T) {
	var in []core.Expense
	amounts := []string{"0.10", "0.20", "19.99", "5", "123.456", "0.01"}
	cats := core.Categories()
	for i, a := range amounts {
		in = append(in, exp(a, a, cats[i%len(cats)], core.NewDate(2024, 6, 1+i%3)))
	}
	p := Aggregate(in)

	daily, cat := core.ZeroMoney, core.ZeroMoney
	for _, d := range p.Daily {
		daily = daily.Add(d.Total)
		if !core.Sum(d.Expenses).Equal(d.Total) {
			t.Fatalf("daily total %s does not match its expenses", d.Total)
		}
	}
	for _, c := range p.Categories {
		cat = cat.Add(c.Total)
	}
	if !daily.Equal(p.Total) || !cat.Equal(p.Total) || !core.Sum(in).Equal(p.Total) {
		t.Fatalf("sums disagree: daily=%s cat=%s total=%s", daily, cat, p.Total)
	}
}
