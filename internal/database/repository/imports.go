package repository

import (
	"context"
	"database/sql"
	"time"
)

// ImportBatchRepo records CSV upload batches.
type ImportBatchRepo struct{ db DBTX }

func NewImportBatchRepo(db DBTX) *ImportBatchRepo { return &ImportBatchRepo{db: db} }

func (r *ImportBatchRepo) Insert(ctx context.Context, b ImportBatch) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO import_batches(id, source, file_name, completed_at, created_at)
	VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, b.ID, b.Source, b.FileName, b.CompletedAt)
	return err
}

func (r *ImportBatchRepo) MarkComplete(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE import_batches SET completed_at = ? WHERE id = ?`, at, id)
	return err
}

func (r *ImportBatchRepo) Get(ctx context.Context, id string) (*ImportBatch, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, source, file_name, completed_at, created_at FROM import_batches WHERE id = ?`, id)
	var b ImportBatch
	var completed sql.NullTime
	if err := row.Scan(&b.ID, &b.Source, &b.FileName, &completed, &b.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if completed.Valid {
		b.CompletedAt = &completed.Time
	}
	return &b, nil
}
