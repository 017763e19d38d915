package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chapterhub/internal/core"
	"chapterhub/internal/datastore"
)

// BudgetService loads the current budget of a chapter and aggregates its
// approved expenses.
type BudgetService struct {
	budgets  datastore.BudgetReader
	expenses datastore.ExpenseLister
}

func NewBudgetService(budgets datastore.BudgetReader, expenses datastore.ExpenseLister) *BudgetService {
	return &BudgetService{budgets: budgets, expenses: expenses}
}

// Overview returns the category breakdown of the chapter's most recent
// budget. A chapter without a budget yields core.NoBudget and no error.
func (s *BudgetService) Overview(ctx context.Context, chapterID string) (core.BudgetOverview, error) {
	if chapterID == "" {
		return core.BudgetOverview{}, core.ErrMissingChapter
	}

	budget, err := s.budgets.LatestBudget(ctx, chapterID)
	if errors.Is(err, datastore.ErrNotFound) {
		slog.DebugContext(ctx, "No budget for chapter", "chapter_id", chapterID)
		return core.NoBudget(), nil
	}
	if err != nil {
		return core.BudgetOverview{}, fmt.Errorf("%w: load budget: %w", datastore.ErrTransient, err)
	}

	expenses, err := s.expenses.ListApprovedExpenses(ctx, chapterID, budget.ID)
	if err != nil {
		return core.BudgetOverview{}, fmt.Errorf("%w: load expenses: %w", datastore.ErrTransient, err)
	}

	return core.AggregateCategories(budget, expenses), nil
}
