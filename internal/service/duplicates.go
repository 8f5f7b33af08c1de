package service

import (
	"context"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/jask/budgeteer/internal/database/repository"
)

// similarityThreshold is the minimum description similarity for a pair to
// be queued for review.
const similarityThreshold = 0.6

// maxDaysApart bounds how far apart two dates may be for a near-duplicate.
const maxDaysApart = 7

// DuplicateService flags likely duplicates that fingerprints cannot catch:
// same amount, close dates, slightly different descriptions (a pending row
// posting under reworded text, or two exports of the same account). Pairs
// go to a review queue; nothing is merged without a decision.
type DuplicateService struct {
	Transactions *repository.TransactionRepo
	Pending      *repository.DuplicateRepo
	Budgets      *BudgetService
}

// Detect scans live transactions pairwise and queues near-duplicates.
func (s *DuplicateService) Detect(ctx context.Context) (int, error) {
	txs, err := s.Transactions.List(ctx, repository.TransactionFilters{})
	if err != nil {
		return 0, err
	}
	queued := 0
	for i := 0; i < len(txs); i++ {
		for j := i + 1; j < len(txs); j++ {
			a, b := txs[i], txs[j]
			if a.Fingerprint == b.Fingerprint {
				continue // the unique index owns exact duplicates
			}
			// The earlier row is the original and survives a merge; the
			// later one is the archive candidate.
			if b.OccurredOn.Before(a.OccurredOn) ||
				(b.OccurredOn.Equal(a.OccurredOn) && b.CreatedAt.Before(a.CreatedAt)) {
				a, b = b, a
			}
			if !nearDuplicate(a, b) {
				continue
			}
			if err := s.Pending.Add(ctx, repository.PendingDuplicate{
				ID:             uuid.NewString(),
				TransactionAID: a.ID,
				TransactionBID: b.ID,
				Similarity:     descriptionSimilarity(a, b),
				Status:         "pending",
			}); err != nil {
				return queued, err
			}
			queued++
		}
	}
	return queued, nil
}

// Decide resolves a queued pair. A duplicate verdict archives the
// second transaction and resyncs its month.
func (s *DuplicateService) Decide(ctx context.Context, pendingID string, isDuplicate bool) error {
	pr, err := s.Pending.Get(ctx, pendingID)
	if err != nil || pr == nil {
		return err
	}
	if !isDuplicate {
		return s.Pending.UpdateStatus(ctx, pendingID, "dismissed")
	}
	b, err := s.Transactions.Get(ctx, pr.TransactionBID)
	if err != nil {
		return err
	}
	if b != nil && !b.Archived {
		if err := s.Transactions.Archive(ctx, b.ID); err != nil {
			return err
		}
		if err := s.Budgets.SyncMonth(ctx, repository.MonthKey(b.OccurredOn)); err != nil {
			return err
		}
	}
	return s.Pending.UpdateStatus(ctx, pendingID, "merged")
}

func nearDuplicate(a, b repository.Transaction) bool {
	if a.AmountCents != b.AmountCents || a.Type != b.Type {
		return false
	}
	if daysApart(a.OccurredOn, b.OccurredOn) > maxDaysApart {
		return false
	}
	return descriptionSimilarity(a, b) >= similarityThreshold
}

func descriptionSimilarity(a, b repository.Transaction) float64 {
	da := strings.ToUpper(strings.TrimSpace(a.Description))
	db := strings.ToUpper(strings.TrimSpace(b.Description))
	if da == "" && db == "" {
		return 0
	}
	longest := len(da)
	if len(db) > longest {
		longest = len(db)
	}
	dist := levenshtein.ComputeDistance(da, db)
	return 1 - float64(dist)/float64(longest)
}

func daysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
