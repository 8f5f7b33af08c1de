package service

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jask/budgeteer/internal/database"
	"github.com/jask/budgeteer/internal/database/repository"
	"github.com/jask/budgeteer/internal/logger"
)

type testEnv struct {
	ctx context.Context
	db  *sql.DB

	transactions *repository.TransactionRepo
	splits       *repository.SplitRepo
	merchants    *repository.MerchantRepo
	rules        *repository.RuleRepo
	budgets      *repository.BudgetRepo
	duplicates   *repository.DuplicateRepo

	budgetSvc   *BudgetService
	resolver    *ResolverService
	ruleSvc     *RuleService
	ingest      *IngestService
	txSvc       *TransactionService
	dupSvc      *DuplicateService
	maintenance *MaintenanceService

	defaultCategoryID string
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	migrations, err := filepath.Abs("../database/migrations")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(dbPath, migrations))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.SeedDefaults(ctx, db))

	env := &testEnv{
		ctx:               ctx,
		db:                db,
		transactions:      repository.NewTransactionRepo(db),
		splits:            repository.NewSplitRepo(db),
		merchants:         repository.NewMerchantRepo(db),
		rules:             repository.NewRuleRepo(db),
		budgets:           repository.NewBudgetRepo(db),
		duplicates:        repository.NewDuplicateRepo(db),
		defaultCategoryID: database.CategoryID(database.DefaultCategoryName),
	}
	env.budgetSvc = &BudgetService{Budgets: env.budgets, Splits: env.splits}
	env.resolver = &ResolverService{Merchants: env.merchants, Transactions: env.transactions}
	env.ruleSvc = &RuleService{
		DB:                db,
		Rules:             env.rules,
		Transactions:      env.transactions,
		Splits:            env.splits,
		Budgets:           env.budgetSvc,
		DefaultCategoryID: env.defaultCategoryID,
	}
	env.ingest = &IngestService{
		DB:                db,
		Transactions:      env.transactions,
		Splits:            env.splits,
		Batches:           repository.NewImportBatchRepo(db),
		Resolver:          env.resolver,
		Rules:             env.ruleSvc,
		Budgets:           env.budgetSvc,
		DefaultCategoryID: env.defaultCategoryID,
		Log:               logger.NewWithWriter(io.Discard),
	}
	env.txSvc = &TransactionService{
		DB:           db,
		Transactions: env.transactions,
		Splits:       env.splits,
		Budgets:      env.budgetSvc,
	}
	env.dupSvc = &DuplicateService{
		Transactions: env.transactions,
		Pending:      env.duplicates,
		Budgets:      env.budgetSvc,
	}
	env.maintenance = &MaintenanceService{DB: db}
	return env
}

// categoryID resolves a seeded category by name.
func categoryID(name string) string { return database.CategoryID(name) }

func newID() string { return uuid.NewString() }

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

// insertExpense persists a bare expense transaction plus its single split,
// bypassing the import pipeline.
func insertExpense(t *testing.T, env *testEnv, day string, cents int64, description string, catID *string) repository.Transaction {
	t.Helper()
	occurred := date(t, day)
	txn := repository.Transaction{
		ID:          newID(),
		OccurredOn:  occurred,
		AmountCents: cents,
		Type:        repository.TypeExpense,
		Description: description,
		CategoryID:  catID,
		Fingerprint: Fingerprint(occurred, nil, -cents, "", description),
	}
	require.NoError(t, env.transactions.Insert(env.ctx, txn))
	require.NoError(t, env.splits.Insert(env.ctx, repository.Split{
		ID:            newID(),
		TransactionID: txn.ID,
		AmountCents:   cents,
		CategoryID:    catID,
	}))
	return txn
}
