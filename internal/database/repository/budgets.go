package repository

import (
	"context"
	"database/sql"
)

// BudgetRepo handles per-month category allocations.
type BudgetRepo struct{ db DBTX }

func NewBudgetRepo(db DBTX) *BudgetRepo { return &BudgetRepo{db: db} }

// WithTx returns a copy of the repo bound to tx.
func (r *BudgetRepo) WithTx(tx *sql.Tx) *BudgetRepo { return &BudgetRepo{db: tx} }

// Upsert creates or updates the allocation for (category, month). Spent is
// left alone here; only the synchronizer writes it.
func (r *BudgetRepo) Upsert(ctx context.Context, a BudgetAllocation) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO budget_allocations(id, category_id, month_key, planned, spent)
	VALUES(?, ?, ?, ?, ?)
	ON CONFLICT(category_id, month_key) DO UPDATE SET
	 planned = excluded.planned;
	`, a.ID, a.CategoryID, a.MonthKey, a.PlannedCents, a.SpentCents)
	return err
}

// SetSpent overwrites the materialized aggregate for one allocation row.
func (r *BudgetRepo) SetSpent(ctx context.Context, categoryID, monthKey string, spentCents int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE budget_allocations SET spent = ? WHERE category_id = ? AND month_key = ?`, spentCents, categoryID, monthKey)
	return err
}

func (r *BudgetRepo) Get(ctx context.Context, categoryID, monthKey string) (*BudgetAllocation, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, category_id, month_key, planned, spent
	FROM budget_allocations WHERE category_id = ? AND month_key = ?`, categoryID, monthKey)
	var a BudgetAllocation
	if err := row.Scan(&a.ID, &a.CategoryID, &a.MonthKey, &a.PlannedCents, &a.SpentCents); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// ListForMonth returns every allocation row of the month.
func (r *BudgetRepo) ListForMonth(ctx context.Context, monthKey string) ([]BudgetAllocation, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, category_id, month_key, planned, spent
	FROM budget_allocations WHERE month_key = ? ORDER BY category_id`, monthKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BudgetAllocation
	for rows.Next() {
		var a BudgetAllocation
		if err := rows.Scan(&a.ID, &a.CategoryID, &a.MonthKey, &a.PlannedCents, &a.SpentCents); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
