package repository

import (
	"context"
	"database/sql"
)

// SplitRepo handles transaction splits.
type SplitRepo struct {
	db DBTX
}

func NewSplitRepo(db DBTX) *SplitRepo { return &SplitRepo{db: db} }

// WithTx returns a copy of the repo bound to tx.
func (r *SplitRepo) WithTx(tx *sql.Tx) *SplitRepo { return &SplitRepo{db: tx} }

func (r *SplitRepo) Insert(ctx context.Context, s Split) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transaction_splits(id, transaction_id, amount, memo, category_id)
	VALUES(?, ?, ?, ?, ?);
	`, s.ID, s.TransactionID, s.AmountCents, s.Memo, s.CategoryID)
	return err
}

// ReplaceForTransaction swaps out every split of a transaction in one go.
func (r *SplitRepo) ReplaceForTransaction(ctx context.Context, transactionID string, splits []Split) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transaction_splits WHERE transaction_id = ?`, transactionID); err != nil {
		return err
	}
	for _, s := range splits {
		if err := r.Insert(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *SplitRepo) ListByTransaction(ctx context.Context, transactionID string) ([]Split, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, transaction_id, amount, memo, category_id
	FROM transaction_splits WHERE transaction_id = ? ORDER BY id`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Split
	for rows.Next() {
		var s Split
		var category sql.NullString
		if err := rows.Scan(&s.ID, &s.TransactionID, &s.AmountCents, &s.Memo, &category); err != nil {
			return nil, err
		}
		if category.Valid {
			s.CategoryID = &category.String
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SplitRepo) CountByTransaction(ctx context.Context, transactionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transaction_splits WHERE transaction_id = ?`, transactionID).Scan(&n)
	return n, err
}

// SumByCategoryForMonth computes, per category, the sum of split amounts
// whose parent transaction falls in the month. This is the source of truth
// the budget synchronizer copies from.
func (r *SplitRepo) SumByCategoryForMonth(ctx context.Context, monthKey string) (map[string]int64, error) {
	start, end, err := MonthRange(monthKey)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
	SELECT COALESCE(s.category_id, ''), SUM(s.amount)
	FROM transaction_splits s
	JOIN transactions t ON t.id = s.transaction_id
	WHERE t.archived = 0 AND t.occurred_on >= ? AND t.occurred_on < ?
	GROUP BY s.category_id;
	`, dateOnly(start), dateOnly(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var cat string
		var sum int64
		if err := rows.Scan(&cat, &sum); err != nil {
			return nil, err
		}
		out[cat] = sum
	}
	return out, rows.Err()
}
