package repository

import (
	"context"
	"database/sql"
)

// RuleRepo stores categorization rules.
type RuleRepo struct{ db DBTX }

func NewRuleRepo(db DBTX) *RuleRepo { return &RuleRepo{db: db} }

func (r *RuleRepo) Add(ctx context.Context, rule Rule) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO rules(id, is_active, match_field, match_type, match_value, category_id, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?)
	`, rule.ID, rule.IsActive, rule.MatchField, rule.MatchType, rule.MatchValue, rule.CategoryID, rule.CreatedAt)
	return err
}

func (r *RuleRepo) Get(ctx context.Context, id string) (*Rule, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, is_active, match_field, match_type, match_value, category_id, created_at
	FROM rules WHERE id = ?`, id)
	var rule Rule
	if err := row.Scan(&rule.ID, &rule.IsActive, &rule.MatchField, &rule.MatchType, &rule.MatchValue, &rule.CategoryID, &rule.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// ListActive returns active rules in creation order, which is also their
// evaluation precedence (earliest created wins).
func (r *RuleRepo) ListActive(ctx context.Context) ([]Rule, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, is_active, match_field, match_type, match_value, category_id, created_at
	FROM rules WHERE is_active = 1 ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Rule
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.ID, &rule.IsActive, &rule.MatchField, &rule.MatchType, &rule.MatchValue, &rule.CategoryID, &rule.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *RuleRepo) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE rules SET is_active = ? WHERE id = ?`, active, id)
	return err
}
