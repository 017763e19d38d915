package core

import "sort"

// CategoryAmount is one row of the budget breakdown.
type CategoryAmount struct {
	Category           ExpenseCategory
	Name               string
	Amount             Money
	Count              int
	PercentageOfBudget float64
	RelativeBarWidth   float64 // scaled against the largest category, for bars only
}

// BudgetOverview is the derived view model for the budget panel.
// HasBudget is false when the chapter has no budget yet; that is an empty
// state, not an error.
type BudgetOverview struct {
	HasBudget   bool
	Budget      Budget
	TotalSpent  Money
	Remaining   Money
	Utilization float64
	ByCategory  []CategoryAmount
}

// AggregateCategories groups approved expenses by category and derives totals,
// percentages of the budget and relative bar widths. Rows that are not
// approved are ignored even if the caller passes them in. Categories are
// returned largest first; equal amounts keep first-seen order.
func AggregateCategories(budget Budget, expenses []Expense) BudgetOverview {
	ov := BudgetOverview{HasBudget: true, Budget: budget}

	index := make(map[ExpenseCategory]int)
	for _, e := range expenses {
		if e.Status != ExpenseApproved {
			continue
		}
		cat := NormalizeCategory(string(e.Category))
		i, ok := index[cat]
		if !ok {
			i = len(ov.ByCategory)
			index[cat] = i
			ov.ByCategory = append(ov.ByCategory, CategoryAmount{Category: cat, Name: cat.Label()})
		}
		ov.ByCategory[i].Amount = ov.ByCategory[i].Amount.Add(e.Amount)
		ov.ByCategory[i].Count++
	}

	sort.SliceStable(ov.ByCategory, func(a, b int) bool {
		return ov.ByCategory[a].Amount.Cents > ov.ByCategory[b].Amount.Cents
	})

	var maxCents int64
	for _, c := range ov.ByCategory {
		ov.TotalSpent = ov.TotalSpent.Add(c.Amount)
		if c.Amount.Cents > maxCents {
			maxCents = c.Amount.Cents
		}
	}

	for i := range ov.ByCategory {
		c := &ov.ByCategory[i]
		c.PercentageOfBudget = percentOf(c.Amount.Cents, budget.Total.Cents)
		c.RelativeBarWidth = percentOf(c.Amount.Cents, maxCents)
	}

	ov.Remaining = Money{Cents: budget.Total.Cents - ov.TotalSpent.Cents}
	ov.Utilization = percentOf(ov.TotalSpent.Cents, budget.Total.Cents)
	return ov
}

// NoBudget is the overview reported when the chapter has no budget.
func NoBudget() BudgetOverview {
	return BudgetOverview{}
}

// percentOf returns part/whole*100, or 0 when whole is not positive.
func percentOf(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}
