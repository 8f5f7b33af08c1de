package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/jask/budgeteer/internal/database/repository"
)

// BudgetService keeps per-category monthly spent aggregates consistent with
// the underlying splits. Sync is pull-based recomputation from source rows,
// never incremental bookkeeping, so the aggregate cannot drift.
type BudgetService struct {
	Budgets *repository.BudgetRepo
	Splits  *repository.SplitRepo
}

// SyncMonth recomputes spent for every allocation row of the month and
// overwrites it. Categories with no splits that month are reset to zero.
func (s *BudgetService) SyncMonth(ctx context.Context, monthKey string) error {
	sums, err := s.Splits.SumByCategoryForMonth(ctx, monthKey)
	if err != nil {
		return err
	}
	allocations, err := s.Budgets.ListForMonth(ctx, monthKey)
	if err != nil {
		return err
	}
	for _, a := range allocations {
		if err := s.Budgets.SetSpent(ctx, a.CategoryID, monthKey, sums[a.CategoryID]); err != nil {
			return err
		}
	}
	return nil
}

// SetPlanned creates or updates the planned amount for (category, month)
// and immediately syncs the month so the new row carries a correct spent.
func (s *BudgetService) SetPlanned(ctx context.Context, categoryID, monthKey string, plannedCents int64) error {
	if _, _, err := repository.MonthRange(monthKey); err != nil {
		return err
	}
	if err := s.Budgets.Upsert(ctx, repository.BudgetAllocation{
		ID:           uuid.NewString(),
		CategoryID:   categoryID,
		MonthKey:     monthKey,
		PlannedCents: plannedCents,
	}); err != nil {
		return err
	}
	return s.SyncMonth(ctx, monthKey)
}
