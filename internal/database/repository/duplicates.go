package repository

import (
	"context"
	"database/sql"
)

// DuplicateRepo stores near-duplicate pairs queued for review.
type DuplicateRepo struct{ db DBTX }

func NewDuplicateRepo(db DBTX) *DuplicateRepo { return &DuplicateRepo{db: db} }

// Add queues a pair. Re-detection of an already-queued pair is a no-op.
func (r *DuplicateRepo) Add(ctx context.Context, d PendingDuplicate) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO pending_duplicates(id, transaction_a_id, transaction_b_id, similarity, status, created_at)
	VALUES(?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(transaction_a_id, transaction_b_id) DO NOTHING
	`, d.ID, d.TransactionAID, d.TransactionBID, d.Similarity, d.Status)
	return err
}

func (r *DuplicateRepo) Get(ctx context.Context, id string) (*PendingDuplicate, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, transaction_a_id, transaction_b_id, similarity, status, created_at
	FROM pending_duplicates WHERE id = ?`, id)
	var d PendingDuplicate
	if err := row.Scan(&d.ID, &d.TransactionAID, &d.TransactionBID, &d.Similarity, &d.Status, &d.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DuplicateRepo) ListPending(ctx context.Context) ([]PendingDuplicate, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, transaction_a_id, transaction_b_id, similarity, status, created_at
	FROM pending_duplicates WHERE status = 'pending' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PendingDuplicate
	for rows.Next() {
		var d PendingDuplicate
		if err := rows.Scan(&d.ID, &d.TransactionAID, &d.TransactionBID, &d.Similarity, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DuplicateRepo) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE pending_duplicates SET status = ? WHERE id = ?`, status, id)
	return err
}
