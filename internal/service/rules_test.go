package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/budgeteer/internal/database/repository"
)

func addRule(t *testing.T, env *testEnv, field, matchType, value, catID string, createdAt time.Time) repository.Rule {
	t.Helper()
	rule := repository.Rule{
		ID:         newID(),
		IsActive:   true,
		MatchField: field,
		MatchType:  matchType,
		MatchValue: value,
		CategoryID: catID,
		CreatedAt:  createdAt,
	}
	require.NoError(t, env.rules.Add(env.ctx, rule))
	return rule
}

func TestRuleMatches(t *testing.T) {
	t.Parallel()
	fields := ruleFields{Description: "NETFLIX.COM Los Gatos", Merchant: "Netflix", Raw: "NETFLIX.COM 866-579-7172"}

	cases := []struct {
		name      string
		field     string
		matchType string
		value     string
		want      bool
	}{
		{"exact ci", repository.FieldMerchant, repository.MatchExact, "netflix", true},
		{"exact miss", repository.FieldMerchant, repository.MatchExact, "netfli", false},
		{"starts", repository.FieldDescription, repository.MatchStartsWith, "netflix.", true},
		{"ends", repository.FieldDescription, repository.MatchEndsWith, "gatos", true},
		{"contains", repository.FieldRaw, repository.MatchContains, "866-579", true},
		{"regex", repository.FieldRaw, repository.MatchRegex, `\d{3}-\d{3}-\d{4}`, true},
		{"regex case-sensitive", repository.FieldDescription, repository.MatchRegex, `^netflix`, false},
	}
	for _, tc := range cases {
		rule := repository.Rule{MatchField: tc.field, MatchType: tc.matchType, MatchValue: tc.value}
		got, err := ruleMatches(rule, fields)
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.want, got, tc.name)
	}

	_, err := ruleMatches(repository.Rule{MatchField: repository.FieldRaw, MatchType: repository.MatchRegex, MatchValue: "("}, fields)
	require.Error(t, err)
}

func TestMatchCategoryPrecedence(t *testing.T) {
	t.Parallel()
	env := setupTest(t)

	shopping := categoryID("Shopping")
	entertainment := categoryID("Entertainment")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	addRule(t, env, repository.FieldDescription, repository.MatchContains, "amazon", shopping, base)
	addRule(t, env, repository.FieldDescription, repository.MatchContains, "amazon prime", entertainment, base.Add(time.Hour))

	got, err := env.ruleSvc.MatchCategory(env.ctx, ruleFields{Description: "AMAZON PRIME VIDEO"})
	require.NoError(t, err)
	require.NotNil(t, got)
	// Both rules match; the earlier-created one wins.
	require.Equal(t, shopping, *got)
}

func TestMatchCategorySkipsBrokenRegex(t *testing.T) {
	t.Parallel()
	env := setupTest(t)

	shopping := categoryID("Shopping")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	addRule(t, env, repository.FieldDescription, repository.MatchRegex, "(", shopping, base)
	addRule(t, env, repository.FieldDescription, repository.MatchContains, "bookshop", shopping, base.Add(time.Hour))

	got, err := env.ruleSvc.MatchCategory(env.ctx, ruleFields{Description: "BOOKSHOP DOWNTOWN"})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, shopping, *got)
}

func TestApplyAssign(t *testing.T) {
	t.Parallel()
	env := setupTest(t)

	subs := categoryID("Subscriptions")
	require.NoError(t, env.budgetSvc.SetPlanned(env.ctx, subs, "2024-03", 5000))

	a := insertExpense(t, env, "2024-03-02", 1599, "NETFLIX.COM", &env.defaultCategoryID)
	insertExpense(t, env, "2024-03-03", 899, "SPOTIFY", &env.defaultCategoryID)

	rule := addRule(t, env, repository.FieldDescription, repository.MatchContains, "netflix", subs, time.Now().UTC())
	res, err := env.ruleSvc.Apply(env.ctx, rule.ID, "assign")
	require.NoError(t, err)
	require.Equal(t, 1, res.Updated)
	require.Equal(t, []string{a.ID}, res.TransactionIDs)

	got, err := env.transactions.Get(env.ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, subs, *got.CategoryID)
	splits, err := env.splits.ListByTransaction(env.ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, splits, 1)
	require.Equal(t, subs, *splits[0].CategoryID)

	alloc, err := env.budgets.Get(env.ctx, subs, "2024-03")
	require.NoError(t, err)
	require.Equal(t, int64(1599), alloc.SpentCents)

	// Re-applying is a no-op: matches already sit on the target category.
	res, err = env.ruleSvc.Apply(env.ctx, rule.ID, "assign")
	require.NoError(t, err)
	require.Equal(t, 0, res.Updated)
}

func TestApplyClear(t *testing.T) {
	t.Parallel()
	env := setupTest(t)

	subs := categoryID("Subscriptions")
	require.NoError(t, env.budgetSvc.SetPlanned(env.ctx, subs, "2024-03", 5000))

	a := insertExpense(t, env, "2024-03-02", 1599, "NETFLIX.COM", &env.defaultCategoryID)
	rule := addRule(t, env, repository.FieldDescription, repository.MatchContains, "netflix", subs, time.Now().UTC())

	_, err := env.ruleSvc.Apply(env.ctx, rule.ID, "assign")
	require.NoError(t, err)

	res, err := env.ruleSvc.Apply(env.ctx, rule.ID, "clear")
	require.NoError(t, err)
	require.Equal(t, 1, res.Updated)

	got, err := env.transactions.Get(env.ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, env.defaultCategoryID, *got.CategoryID)

	alloc, err := env.budgets.Get(env.ctx, subs, "2024-03")
	require.NoError(t, err)
	require.Equal(t, int64(0), alloc.SpentCents)

	// Clearing only reverts transactions still on the rule's category.
	res, err = env.ruleSvc.Apply(env.ctx, rule.ID, "clear")
	require.NoError(t, err)
	require.Equal(t, 0, res.Updated)
}

func TestApplySkipsMultiSplit(t *testing.T) {
	t.Parallel()
	env := setupTest(t)

	subs := categoryID("Subscriptions")
	shopping := categoryID("Shopping")
	a := insertExpense(t, env, "2024-03-02", 2000, "NETFLIX.COM GIFT", &env.defaultCategoryID)
	require.NoError(t, env.splits.ReplaceForTransaction(env.ctx, a.ID, []repository.Split{
		{ID: newID(), TransactionID: a.ID, AmountCents: 1500, CategoryID: &subs},
		{ID: newID(), TransactionID: a.ID, AmountCents: 500, CategoryID: &shopping},
	}))

	rule := addRule(t, env, repository.FieldDescription, repository.MatchContains, "netflix", subs, time.Now().UTC())
	res, err := env.ruleSvc.Apply(env.ctx, rule.ID, "assign")
	require.NoError(t, err)
	require.Equal(t, 0, res.Updated)

	splits, err := env.splits.ListByTransaction(env.ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, splits, 2)
}

func TestApplyUnknownModeAndRule(t *testing.T) {
	t.Parallel()
	env := setupTest(t)

	_, err := env.ruleSvc.Apply(env.ctx, "whatever", "replace")
	require.Error(t, err)

	_, err = env.ruleSvc.Apply(env.ctx, "missing-rule", "assign")
	require.Error(t, err)
}
