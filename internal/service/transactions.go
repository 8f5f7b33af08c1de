package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jask/budgeteer/internal/database"
	"github.com/jask/budgeteer/internal/database/repository"
)

// ErrFingerprintConflict signals an edit or create whose fingerprint already
// belongs to a different live transaction. The write is rejected whole; it
// is never silently merged.
var ErrFingerprintConflict = errors.New("fingerprint already belongs to another transaction")

// ErrSplitMismatch signals split amounts that disagree with the transaction
// amount beyond the one-cent tolerance.
var ErrSplitMismatch = errors.New("split amounts do not sum to transaction amount")

// splitTolerance is the allowed absolute difference, in cents, between a
// transaction's amount and the sum of its splits.
const splitTolerance = 1

// TransactionService handles manual entry, edits and deletion, keeping
// fingerprints unique and budget aggregates in sync.
type TransactionService struct {
	DB           *sql.DB
	Transactions *repository.TransactionRepo
	Splits       *repository.SplitRepo
	Budgets      *BudgetService
}

// Create persists a manually entered transaction plus its single initial
// split atomically, then syncs the affected month.
func (s *TransactionService) Create(ctx context.Context, t repository.Transaction) (*repository.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Fingerprint = Fingerprint(t.OccurredOn, t.PostedOn, signedCents(t), displayMerchant(t), t.Description)

	existing, err := s.Transactions.GetByFingerprint(ctx, t.Fingerprint)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("create transaction: %w", ErrFingerprintConflict)
	}

	if err := database.WithTxContext(ctx, s.DB, func(tx *sql.Tx) error {
		if err := s.Transactions.WithTx(tx).Insert(ctx, t); err != nil {
			return err
		}
		return s.Splits.WithTx(tx).Insert(ctx, repository.Split{
			ID:            uuid.NewString(),
			TransactionID: t.ID,
			AmountCents:   t.AmountCents,
			Memo:          t.Memo,
			CategoryID:    t.CategoryID,
		})
	}); err != nil {
		return nil, err
	}
	if err := s.Budgets.SyncMonth(ctx, repository.MonthKey(t.OccurredOn)); err != nil {
		return nil, err
	}
	return &t, nil
}

// Update rewrites a transaction and its splits. The new fingerprint is
// checked against other live rows first; split totals are validated before
// any write. When the date moved across months, both the prior and the new
// month are resynced.
func (s *TransactionService) Update(ctx context.Context, t repository.Transaction, splits []repository.Split) error {
	prior, err := s.Transactions.Get(ctx, t.ID)
	if err != nil {
		return err
	}
	if prior == nil {
		return fmt.Errorf("update transaction: %s not found", t.ID)
	}

	t.Fingerprint = Fingerprint(t.OccurredOn, t.PostedOn, signedCents(t), displayMerchant(t), t.Description)
	other, err := s.Transactions.GetByFingerprint(ctx, t.Fingerprint)
	if err != nil {
		return err
	}
	if other != nil && other.ID != t.ID {
		return fmt.Errorf("update transaction %s: %w", t.ID, ErrFingerprintConflict)
	}

	if len(splits) == 0 {
		splits = []repository.Split{{
			AmountCents: t.AmountCents,
			Memo:        t.Memo,
			CategoryID:  t.CategoryID,
		}}
	}
	var sum int64
	for i := range splits {
		if splits[i].ID == "" {
			splits[i].ID = uuid.NewString()
		}
		splits[i].TransactionID = t.ID
		sum += splits[i].AmountCents
	}
	if diff := sum - t.AmountCents; diff > splitTolerance || diff < -splitTolerance {
		return fmt.Errorf("update transaction %s: %w", t.ID, ErrSplitMismatch)
	}

	if err := database.WithTxContext(ctx, s.DB, func(tx *sql.Tx) error {
		if err := s.Transactions.WithTx(tx).Update(ctx, t); err != nil {
			return err
		}
		return s.Splits.WithTx(tx).ReplaceForTransaction(ctx, t.ID, splits)
	}); err != nil {
		return err
	}

	priorMonth := repository.MonthKey(prior.OccurredOn)
	newMonth := repository.MonthKey(t.OccurredOn)
	if err := s.Budgets.SyncMonth(ctx, priorMonth); err != nil {
		return err
	}
	if newMonth != priorMonth {
		return s.Budgets.SyncMonth(ctx, newMonth)
	}
	return nil
}

// Delete soft-deletes a transaction (releasing its fingerprint) and resyncs
// its month.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	t, err := s.Transactions.Get(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return nil
	}
	if err := s.Transactions.Archive(ctx, id); err != nil {
		return err
	}
	return s.Budgets.SyncMonth(ctx, repository.MonthKey(t.OccurredOn))
}

// signedCents restores the sign convention fingerprints are built on:
// expenses negative, income positive.
func signedCents(t repository.Transaction) int64 {
	if t.Type == repository.TypeExpense {
		return -t.AmountCents
	}
	return t.AmountCents
}

func displayMerchant(t repository.Transaction) string {
	if t.Merchant == nil {
		return ""
	}
	return *t.Merchant
}
