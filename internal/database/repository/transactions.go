package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

const transactionCols = `id, occurred_on, posted_on, amount, txn_type, merchant, merchant_id,
 description, memo, category_id, fingerprint, import_batch_id, is_pending, archived,
 created_at, updated_at`

// TransactionRepo handles transactions.
type TransactionRepo struct {
	db DBTX
}

func NewTransactionRepo(db DBTX) *TransactionRepo { return &TransactionRepo{db: db} }

// WithTx returns a copy of the repo bound to tx.
func (r *TransactionRepo) WithTx(tx *sql.Tx) *TransactionRepo { return &TransactionRepo{db: tx} }

func (r *TransactionRepo) Insert(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, occurred_on, posted_on, amount, txn_type, merchant, merchant_id,
	 description, memo, category_id, fingerprint, import_batch_id, is_pending, archived,
	 created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		t.ID, dateOnly(t.OccurredOn), dateOnlyPtr(t.PostedOn), t.AmountCents, t.Type,
		t.Merchant, t.MerchantID, t.Description, t.Memo, t.CategoryID, t.Fingerprint,
		t.ImportBatchID, t.IsPending)
	return err
}

// Update rewrites every mutable column of the row.
func (r *TransactionRepo) Update(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE transactions SET
	 occurred_on = ?, posted_on = ?, amount = ?, txn_type = ?, merchant = ?,
	 merchant_id = ?, description = ?, memo = ?, category_id = ?, fingerprint = ?,
	 is_pending = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`,
		dateOnly(t.OccurredOn), dateOnlyPtr(t.PostedOn), t.AmountCents, t.Type, t.Merchant,
		t.MerchantID, t.Description, t.Memo, t.CategoryID, t.Fingerprint, t.IsPending, t.ID)
	return err
}

func (r *TransactionRepo) UpdateCategory(ctx context.Context, id string, categoryID *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET category_id = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, categoryID, id)
	return err
}

// SetMerchant assigns a resolved identity and mirrors its canonical name
// into the display field.
func (r *TransactionRepo) SetMerchant(ctx context.Context, id, merchantID, canonicalName string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET merchant_id = ?, merchant = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, merchantID, canonicalName, id)
	return err
}

// Archive soft-deletes a transaction, releasing its fingerprint.
func (r *TransactionRepo) Archive(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET archived = 1, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

// Delete removes a transaction row for good. Splits cascade.
func (r *TransactionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

func (r *TransactionRepo) Get(ctx context.Context, id string) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// GetByFingerprint finds the live transaction carrying fingerprint, if any.
func (r *TransactionRepo) GetByFingerprint(ctx context.Context, fingerprint string) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionCols+` FROM transactions WHERE fingerprint = ? AND archived = 0`, fingerprint)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// TransactionFilters defines list filters. Zero values mean "no filter".
type TransactionFilters struct {
	Type         string
	CategoryID   string
	MonthKey     string // YYYY-MM
	FieldNotNull string // column name; coarse store-side prefilter for rules
	Unresolved   bool   // merchant_id IS NULL
}

func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	where := []string{"archived = 0"}
	var args []interface{}

	if f.Type != "" {
		where = append(where, "txn_type = ?")
		args = append(args, f.Type)
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.MonthKey != "" {
		start, end, err := MonthRange(f.MonthKey)
		if err != nil {
			return nil, err
		}
		where = append(where, "occurred_on >= ? AND occurred_on < ?")
		args = append(args, dateOnly(start), dateOnly(end))
	}
	switch f.FieldNotNull {
	case "description":
		where = append(where, "description != ''")
	case "merchant":
		where = append(where, "merchant IS NOT NULL AND merchant != ''")
	}
	if f.Unresolved {
		where = append(where, "merchant_id IS NULL")
	}

	query := "SELECT " + transactionCols + " FROM transactions WHERE " + strings.Join(where, " AND ") +
		" ORDER BY occurred_on DESC, created_at DESC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountLive returns the number of non-archived transactions.
func (r *TransactionRepo) CountLive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE archived = 0`).Scan(&n)
	return n, err
}

// MonthRange converts a YYYY-MM key into its [start, end) date range.
func MonthRange(monthKey string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", strings.TrimSpace(monthKey))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}

// MonthKey formats a date as its YYYY-MM bucket.
func MonthKey(t time.Time) string { return t.UTC().Format("2006-01") }

func dateOnly(t time.Time) string { return t.UTC().Format("2006-01-02") }

func dateOnlyPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := dateOnly(*t)
	return &s
}

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var occurred string
	var posted, merchant, merchantID, category, batch sql.NullString
	var pending, archived int
	if err := row.Scan(&t.ID, &occurred, &posted, &t.AmountCents, &t.Type, &merchant,
		&merchantID, &t.Description, &t.Memo, &category, &t.Fingerprint, &batch,
		&pending, &archived, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	var err error
	t.OccurredOn, err = time.Parse("2006-01-02", occurred)
	if err != nil {
		return Transaction{}, err
	}
	if posted.Valid {
		p, err := time.Parse("2006-01-02", posted.String)
		if err != nil {
			return Transaction{}, err
		}
		t.PostedOn = &p
	}
	if merchant.Valid {
		t.Merchant = &merchant.String
	}
	if merchantID.Valid {
		t.MerchantID = &merchantID.String
	}
	if category.Valid {
		t.CategoryID = &category.String
	}
	if batch.Valid {
		t.ImportBatchID = &batch.String
	}
	t.IsPending = pending != 0
	t.Archived = archived != 0
	return t, nil
}
