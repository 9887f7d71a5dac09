package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// duplicateTolerance is the largest amount difference still treated as equal.
var duplicateTolerance = decimal.New(1, -2)

// IsDuplicate reports whether candidate likely repeats one of the existing
// same-day expenses.
func IsDuplicate(candidate Expense, sameDay []Expense) bool {
	_, ok := FindDuplicate(candidate, sameDay)
	return ok
}

// FindDuplicate returns the first existing expense that matches candidate on
// title (case-insensitive), amount (within 0.01), category and date.
func FindDuplicate(candidate Expense, sameDay []Expense) (Expense, bool) {
	for _, e := range sameDay {
		if e.ID != "" && e.ID == candidate.ID {
			continue
		}
		if !strings.EqualFold(e.Title, candidate.Title) {
			continue
		}
		if e.Category != candidate.Category || !e.Date.Equal(candidate.Date) {
			continue
		}
		if e.Amount.Decimal.Sub(candidate.Amount.Decimal).Abs().LessThan(duplicateTolerance) {
			return e, true
		}
	}
	return Expense{}, false
}
