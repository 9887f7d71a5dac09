package http

import (
	"time"

	"expensetracker/internal/core"
)

type expenseView struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Amount           string    `json:"amount"`
	Category         string    `json:"category"`
	CategoryLabel    string    `json:"categoryLabel"`
	Notes            string    `json:"notes,omitempty"`
	ReceiptImageURIs []string  `json:"receiptImageUris"`
	Timestamp        time.Time `json:"timestamp"`
	Date             string    `json:"date"`
}

func newExpenseView(e core.Expense) expenseView {
	receipts := e.ReceiptImageURIs
	if receipts == nil {
		receipts = []string{}
	}
	return expenseView{
		ID:               e.ID,
		Title:            e.Title,
		Amount:           e.Amount.StringFixed(2),
		Category:         string(e.Category),
		CategoryLabel:    e.Category.DisplayName(),
		Notes:            e.Notes,
		ReceiptImageURIs: receipts,
		Timestamp:        e.Timestamp,
		Date:             e.Date.String(),
	}
}

func newExpenseViews(es []core.Expense) []expenseView {
	out := make([]expenseView, len(es))
	for i, e := range es {
		out[i] = newExpenseView(e)
	}
	return out
}

type dailyView struct {
	Date  string `json:"date"`
	Total string `json:"total"`
	Count int    `json:"count"`
}

type categoryView struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Total    string `json:"total"`
	Count    int    `json:"count"`
}

type reportView struct {
	From         string         `json:"from"`
	To           string         `json:"to"`
	Currency     string         `json:"currency"`
	Total        string         `json:"total"`
	Count        int            `json:"count"`
	AverageDaily string         `json:"averageDaily"`
	Daily        []dailyView    `json:"daily"`
	Categories   []categoryView `json:"categories"`
}

func newReportView(from, to core.Date, currency string, p core.ReportPayload) reportView {
	v := reportView{
		From:         from.String(),
		To:           to.String(),
		Currency:     currency,
		Total:        p.Total.StringFixed(2),
		Count:        p.Count,
		AverageDaily: p.AverageDaily.StringFixed(2),
		Daily:        make([]dailyView, len(p.Daily)),
		Categories:   make([]categoryView, len(p.Categories)),
	}
	for i, d := range p.Daily {
		v.Daily[i] = dailyView{Date: d.Date.String(), Total: d.Total.StringFixed(2), Count: d.Count}
	}
	for i, c := range p.Categories {
		v.Categories[i] = categoryView{
			Category: string(c.Category),
			Label:    c.Category.DisplayName(),
			Total:    c.Total.StringFixed(2),
			Count:    c.Count,
		}
	}
	return v
}
