package service

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/budgeteer/internal/database"
	"github.com/jask/budgeteer/internal/database/repository"
)

// IngestService imports bank CSV exports. Rows are processed sequentially
// within one batch so the fingerprint duplicate check observes earlier rows
// of the same file.
type IngestService struct {
	DB                *sql.DB
	Transactions      *repository.TransactionRepo
	Splits            *repository.SplitRepo
	Batches           *repository.ImportBatchRepo
	Resolver          *ResolverService
	Rules             *RuleService
	Budgets           *BudgetService
	DefaultCategoryID string
	Log               zerolog.Logger
}

// RowError records a per-row persistence failure that did not stop the batch.
type RowError struct {
	Row     int
	Message string
}

// ImportResult summarizes one CSV import.
type ImportResult struct {
	BatchID        string
	Imported       int
	Duplicates     int
	Skipped        int
	Errors         []RowError
	TransactionIDs []string
}

// ImportCSV reads a header-bearing CSV export and persists its rows:
// extract, fingerprint, duplicate-check, resolve merchant, categorize,
// insert transaction plus its single initial split atomically. Affected
// months are synced once after the loop.
func (s *IngestService) ImportCSV(ctx context.Context, r io.Reader, source, fileName string) (ImportResult, error) {
	res := ImportResult{BatchID: uuid.NewString()}

	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	headers, err := csvr.Read()
	if err != nil {
		if err == io.EOF {
			return res, errors.New("import: empty file, header row required")
		}
		return res, fmt.Errorf("import: read header: %w", err)
	}

	if err := s.Batches.Insert(ctx, repository.ImportBatch{
		ID:       res.BatchID,
		Source:   source,
		FileName: fileName,
	}); err != nil {
		return res, fmt.Errorf("import: create batch: %w", err)
	}

	months := map[string]bool{}
	line := 1
	for {
		line++
		record, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: line, Message: err.Error()})
			continue
		}

		candidate, err := extractRow(rowMap(headers, record))
		if err != nil {
			var skip skipError
			if errors.As(err, &skip) {
				res.Skipped++
				continue
			}
			res.Errors = append(res.Errors, RowError{Row: line, Message: err.Error()})
			continue
		}

		if err := s.importCandidate(ctx, candidate, &res, line, months); err != nil {
			res.Errors = append(res.Errors, RowError{Row: line, Message: err.Error()})
		}
	}

	sorted := make([]string, 0, len(months))
	for m := range months {
		sorted = append(sorted, m)
	}
	sort.Strings(sorted)
	for _, m := range sorted {
		if err := s.Budgets.SyncMonth(ctx, m); err != nil {
			return res, fmt.Errorf("import: sync month %s: %w", m, err)
		}
	}

	if err := s.Batches.MarkComplete(ctx, res.BatchID, database.Now()); err != nil {
		return res, fmt.Errorf("import: complete batch: %w", err)
	}

	s.Log.Info().
		Str("batch", res.BatchID).
		Str("file", fileName).
		Int("imported", res.Imported).
		Int("duplicates", res.Duplicates).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Msg("csv import complete")
	return res, nil
}

// importCandidate persists one extracted row. Duplicates count, they do not
// error; store failures are per-row errors the caller records.
func (s *IngestService) importCandidate(ctx context.Context, c rowCandidate, res *ImportResult, line int, months map[string]bool) error {
	signed := c.AmountCents
	if c.Type == repository.TypeExpense {
		signed = -signed
	}
	fingerprint := Fingerprint(c.OccurredOn, c.PostedOn, signed, c.Merchant, c.Description)

	existing, err := s.Transactions.GetByFingerprint(ctx, fingerprint)
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}
	if existing != nil {
		res.Duplicates++
		return nil
	}

	t := repository.Transaction{
		ID:            uuid.NewString(),
		OccurredOn:    c.OccurredOn,
		PostedOn:      c.PostedOn,
		AmountCents:   c.AmountCents,
		Type:          c.Type,
		Description:   c.Description,
		Fingerprint:   fingerprint,
		ImportBatchID: &res.BatchID,
		IsPending:     c.PostedOn == nil,
	}
	if c.Merchant != "" {
		m := c.Merchant
		t.Merchant = &m
	}

	resolution, err := s.Resolver.Resolve(ctx, c.RawMerchant, ResolveOptions{})
	if err != nil {
		return fmt.Errorf("resolve merchant: %w", err)
	}
	if resolution != nil {
		t.MerchantID = &resolution.MerchantID
		// Display field mirrors the resolved canonical name.
		name := resolution.CanonicalName
		t.Merchant = &name
	}

	category, err := s.Rules.MatchCategory(ctx, ruleFields{
		Description: c.Description,
		Merchant:    displayMerchant(t),
		Raw:         c.RawMerchant,
	})
	if err != nil {
		return fmt.Errorf("match rules: %w", err)
	}
	if category == nil {
		category = &s.DefaultCategoryID
	}
	t.CategoryID = category

	if err := database.WithTxContext(ctx, s.DB, func(tx *sql.Tx) error {
		if err := s.Transactions.WithTx(tx).Insert(ctx, t); err != nil {
			return err
		}
		return s.Splits.WithTx(tx).Insert(ctx, repository.Split{
			ID:            uuid.NewString(),
			TransactionID: t.ID,
			AmountCents:   t.AmountCents,
			CategoryID:    t.CategoryID,
		})
	}); err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	res.Imported++
	res.TransactionIDs = append(res.TransactionIDs, t.ID)
	months[repository.MonthKey(t.OccurredOn)] = true
	return nil
}
