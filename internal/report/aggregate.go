// Package report turns expense lists into aggregated report payloads and
// renders them as paginated PDF documents.
package report

import (
	"slices"

	"expensetracker/internal/core"
)

// Aggregate builds the report payload for expenses. Daily summaries come out
// ascending by date, category summaries descending by total with ties left in
// discovery order. The input slice is not modified.
func Aggregate(expenses []core.Expense) core.ReportPayload {
	payload := core.ReportPayload{
		Total:        core.ZeroMoney,
		AverageDaily: core.ZeroMoney,
		Daily:        []core.DailySummary{},
		Categories:   []core.CategorySummary{},
	}
	if len(expenses) == 0 {
		return payload
	}

	dayIndex := make(map[string]int)
	catIndex := make(map[core.Category]int)
	for _, e := range expenses {
		payload.Total = payload.Total.Add(e.Amount)
		payload.Count++

		i, ok := dayIndex[e.Date.String()]
		if !ok {
			i = len(payload.Daily)
			dayIndex[e.Date.String()] = i
			payload.Daily = append(payload.Daily, core.DailySummary{Date: e.Date, Total: core.ZeroMoney})
		}
		day := &payload.Daily[i]
		day.Total = day.Total.Add(e.Amount)
		day.Count++
		day.Expenses = append(day.Expenses, e)

		j, ok := catIndex[e.Category]
		if !ok {
			j = len(payload.Categories)
			catIndex[e.Category] = j
			payload.Categories = append(payload.Categories, core.CategorySummary{Category: e.Category, Total: core.ZeroMoney})
		}
		cat := &payload.Categories[j]
		cat.Total = cat.Total.Add(e.Amount)
		cat.Count++
	}

	slices.SortFunc(payload.Daily, func(a, b core.DailySummary) int {
		return a.Date.Compare(b.Date.Time)
	})
	slices.SortStableFunc(payload.Categories, func(a, b core.CategorySummary) int {
		return b.Total.Cmp(a.Total)
	})

	first := payload.Daily[0].Date
	last := payload.Daily[len(payload.Daily)-1].Date
	days := max(1, first.DaysBetween(last)+1)
	payload.AverageDaily = payload.Total.DivInt(int64(days))
	return payload
}
