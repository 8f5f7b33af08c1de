package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/budgeteer/internal/database"
	"github.com/jask/budgeteer/internal/database/repository"
)

// ruleFields holds the candidate text a rule can match against.
type ruleFields struct {
	Description string
	Merchant    string
	Raw         string
}

// RuleService evaluates categorization rules at import time and re-applies
// them in bulk over existing data.
type RuleService struct {
	DB                *sql.DB
	Rules             *repository.RuleRepo
	Transactions      *repository.TransactionRepo
	Splits            *repository.SplitRepo
	Budgets           *BudgetService
	DefaultCategoryID string
}

// ApplyResult summarizes one bulk rule-application pass.
type ApplyResult struct {
	Updated        int
	TransactionIDs []string
}

// MatchCategory returns the category of the first active rule (creation
// order) whose predicate matches, or nil when no rule claims the candidate.
func (s *RuleService) MatchCategory(ctx context.Context, fields ruleFields) (*string, error) {
	rules, err := s.Rules.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		ok, err := ruleMatches(rule, fields)
		if err != nil {
			// A broken regex in one rule must not block the others.
			continue
		}
		if ok {
			cat := rule.CategoryID
			return &cat, nil
		}
	}
	return nil, nil
}

// ruleMatches evaluates one rule against the candidate's selected field.
// EXACT and the substring-class matches are case-insensitive; REGEX is
// applied as written.
func ruleMatches(rule repository.Rule, fields ruleFields) (bool, error) {
	var value string
	switch rule.MatchField {
	case repository.FieldDescription:
		value = fields.Description
	case repository.FieldMerchant:
		value = fields.Merchant
	case repository.FieldRaw:
		value = fields.Raw
	default:
		return false, fmt.Errorf("unknown match field %q", rule.MatchField)
	}
	if value == "" {
		return false, nil
	}
	haystack := strings.ToLower(value)
	needle := strings.ToLower(rule.MatchValue)
	switch rule.MatchType {
	case repository.MatchExact:
		return haystack == needle, nil
	case repository.MatchStartsWith:
		return strings.HasPrefix(haystack, needle), nil
	case repository.MatchEndsWith:
		return strings.HasSuffix(haystack, needle), nil
	case repository.MatchContains:
		return strings.Contains(haystack, needle), nil
	case repository.MatchRegex:
		re, err := regexp.Compile(rule.MatchValue)
		if err != nil {
			return false, err
		}
		return re.MatchString(value), nil
	default:
		return false, fmt.Errorf("unknown match type %q", rule.MatchType)
	}
}

// persistedFields maps a stored transaction onto the matchable fields. RAW
// follows the bank's untouched descriptor, which is the description column
// for persisted rows.
func persistedFields(t repository.Transaction) ruleFields {
	f := ruleFields{Description: t.Description, Raw: t.Description}
	if t.Merchant != nil {
		f.Merchant = *t.Merchant
	}
	return f
}

// Apply re-runs one rule over existing EXPENSE transactions. mode "assign"
// moves matches onto the rule's category; mode "clear" reverts transactions
// currently on the rule's category back to the default. The store-side
// query is only a coarse prefilter (a store predicate cannot express
// REGEX); every candidate is re-evaluated in-process. Transactions with
// more than one split are skipped rather than silently overridden.
func (s *RuleService) Apply(ctx context.Context, ruleID, mode string) (ApplyResult, error) {
	var res ApplyResult
	if mode != "assign" && mode != "clear" {
		return res, fmt.Errorf("rule apply: unknown mode %q", mode)
	}
	rule, err := s.Rules.Get(ctx, ruleID)
	if err != nil {
		return res, err
	}
	if rule == nil {
		return res, fmt.Errorf("rule apply: rule %s not found", ruleID)
	}

	prefilter := "description"
	if rule.MatchField == repository.FieldMerchant {
		prefilter = "merchant"
	}
	candidates, err := s.Transactions.List(ctx, repository.TransactionFilters{
		Type:         repository.TypeExpense,
		FieldNotNull: prefilter,
	})
	if err != nil {
		return res, err
	}

	months := map[string]bool{}
	for _, t := range candidates {
		matched, err := ruleMatches(*rule, persistedFields(t))
		if err != nil {
			return res, fmt.Errorf("rule apply: evaluate rule %s: %w", rule.ID, err)
		}

		var target *string
		switch mode {
		case "assign":
			if !matched {
				continue
			}
			target = &rule.CategoryID
		case "clear":
			if !matched || t.CategoryID == nil || *t.CategoryID != rule.CategoryID {
				continue
			}
			target = &s.DefaultCategoryID
		}

		splits, err := s.Splits.ListByTransaction(ctx, t.ID)
		if err != nil {
			return res, err
		}
		if len(splits) > 1 {
			// Manually split transactions are never rewritten by rules.
			continue
		}
		if mode == "assign" && alreadyOnCategory(t, splits, rule.CategoryID) {
			continue
		}

		txn := t
		if err := database.WithTxContext(ctx, s.DB, func(tx *sql.Tx) error {
			if err := s.Transactions.WithTx(tx).UpdateCategory(ctx, txn.ID, target); err != nil {
				return err
			}
			return s.Splits.WithTx(tx).ReplaceForTransaction(ctx, txn.ID, []repository.Split{{
				ID:            uuid.NewString(),
				TransactionID: txn.ID,
				AmountCents:   txn.AmountCents,
				CategoryID:    target,
			}})
		}); err != nil {
			return res, err
		}
		res.Updated++
		res.TransactionIDs = append(res.TransactionIDs, txn.ID)
		months[repository.MonthKey(txn.OccurredOn)] = true
	}

	sorted := make([]string, 0, len(months))
	for m := range months {
		sorted = append(sorted, m)
	}
	sort.Strings(sorted)
	for _, m := range sorted {
		if err := s.Budgets.SyncMonth(ctx, m); err != nil {
			return res, err
		}
	}
	return res, nil
}

func alreadyOnCategory(t repository.Transaction, splits []repository.Split, categoryID string) bool {
	if t.CategoryID == nil || *t.CategoryID != categoryID {
		return false
	}
	if len(splits) != 1 {
		return false
	}
	return splits[0].CategoryID != nil && *splits[0].CategoryID == categoryID
}
