package core

// DailySummary aggregates the expenses recorded on one calendar date.
// Total equals the sum of Expenses and Count equals len(Expenses).
type DailySummary struct {
	Date     Date
	Total    Money
	Count    int
	Expenses []Expense
}

// CategorySummary aggregates the expenses of one category.
type CategorySummary struct {
	Category Category
	Total    Money
	Count    int
}

// ReportPayload is the derived report for a set of expenses. Daily is
// ascending by date and Categories is descending by total.
type ReportPayload struct {
	Total        Money
	Count        int
	AverageDaily Money
	Daily        []DailySummary
	Categories   []CategorySummary
}

// Empty reports whether the payload was built from no expenses.
func (p ReportPayload) Empty() bool { return p.Count == 0 }
