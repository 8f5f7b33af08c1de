package repository

import (
	"context"
	"database/sql"
)

// MerchantRepo handles merchants and their aliases. All writes are
// unique-key upserts so concurrent resolution of the same raw name
// converges on one row instead of racing.
type MerchantRepo struct {
	db DBTX
}

func NewMerchantRepo(db DBTX) *MerchantRepo { return &MerchantRepo{db: db} }

// WithTx returns a copy of the repo bound to tx.
func (r *MerchantRepo) WithTx(tx *sql.Tx) *MerchantRepo { return &MerchantRepo{db: tx} }

// UpsertByCanonicalName creates the merchant if absent; if present it only
// refreshes yelp_id when one is supplied. Returns the surviving row.
func (r *MerchantRepo) UpsertByCanonicalName(ctx context.Context, m Merchant) (*Merchant, error) {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO merchants(id, canonical_name, yelp_id, created_at, updated_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(canonical_name) DO UPDATE SET
	 yelp_id = COALESCE(excluded.yelp_id, merchants.yelp_id),
	 updated_at = CURRENT_TIMESTAMP;
	`, m.ID, m.CanonicalName, m.YelpID)
	if err != nil {
		return nil, err
	}
	return r.GetByCanonicalName(ctx, m.CanonicalName)
}

func (r *MerchantRepo) Get(ctx context.Context, id string) (*Merchant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, canonical_name, yelp_id, created_at, updated_at FROM merchants WHERE id = ?`, id)
	return scanMerchant(row)
}

func (r *MerchantRepo) GetByCanonicalName(ctx context.Context, name string) (*Merchant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, canonical_name, yelp_id, created_at, updated_at FROM merchants WHERE canonical_name = ?`, name)
	return scanMerchant(row)
}

func (r *MerchantRepo) CountMerchants(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM merchants`).Scan(&n)
	return n, err
}

// UpsertAlias records a (merchant, normalized key) pair. Replays refresh the
// observed raw spelling and yelp snapshot; last writer wins on those fields,
// identity never changes.
func (r *MerchantRepo) UpsertAlias(ctx context.Context, a MerchantAlias) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO merchant_aliases(id, merchant_id, normalized_key, raw_name, yelp_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(normalized_key) DO UPDATE SET
	 raw_name = excluded.raw_name,
	 yelp_id = COALESCE(excluded.yelp_id, merchant_aliases.yelp_id),
	 updated_at = CURRENT_TIMESTAMP;
	`, a.ID, a.MerchantID, a.NormalizedKey, a.RawName, a.YelpID)
	return err
}

func (r *MerchantRepo) GetAliasByKey(ctx context.Context, normalizedKey string) (*MerchantAlias, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, merchant_id, normalized_key, raw_name, yelp_id, created_at, updated_at
	FROM merchant_aliases WHERE normalized_key = ?`, normalizedKey)
	var a MerchantAlias
	var yelp sql.NullString
	if err := row.Scan(&a.ID, &a.MerchantID, &a.NormalizedKey, &a.RawName, &yelp, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if yelp.Valid {
		a.YelpID = &yelp.String
	}
	return &a, nil
}

// UpdateAliasRawName refreshes the display spelling only.
func (r *MerchantRepo) UpdateAliasRawName(ctx context.Context, aliasID, rawName string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE merchant_aliases SET raw_name = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, rawName, aliasID)
	return err
}

func scanMerchant(row *sql.Row) (*Merchant, error) {
	var m Merchant
	var yelp sql.NullString
	if err := row.Scan(&m.ID, &m.CanonicalName, &yelp, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if yelp.Valid {
		m.YelpID = &yelp.String
	}
	return &m, nil
}
