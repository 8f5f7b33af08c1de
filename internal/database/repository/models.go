// Package repository provides typed access to the sqlite tables.
package repository

import "time"

// Transaction type values.
const (
	TypeIncome  = "INCOME"
	TypeExpense = "EXPENSE"
)

// Rule match fields.
const (
	FieldDescription = "DESCRIPTION"
	FieldMerchant    = "MERCHANT"
	FieldRaw         = "RAW"
)

// Rule match types.
const (
	MatchExact      = "EXACT"
	MatchStartsWith = "STARTS_WITH"
	MatchEndsWith   = "ENDS_WITH"
	MatchContains   = "CONTAINS"
	MatchRegex      = "REGEX"
)

// Category represents a category row.
type Category struct {
	ID        string
	ParentID  *string
	Name      string
	SortOrder int
}

// Merchant represents one resolved merchant identity.
type Merchant struct {
	ID            string
	CanonicalName string
	YelpID        *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MerchantAlias links a normalized key (and the raw spelling that produced
// it) to one merchant. RawName is display-only and never used as identity.
type MerchantAlias struct {
	ID            string
	MerchantID    string
	NormalizedKey string
	RawName       string
	YelpID        *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Transaction represents a transaction row. AmountCents is positive; the
// sign lives in Type.
type Transaction struct {
	ID            string
	OccurredOn    time.Time
	PostedOn      *time.Time
	AmountCents   int64
	Type          string
	Merchant      *string
	MerchantID    *string
	Description   string
	Memo          string
	CategoryID    *string
	Fingerprint   string
	ImportBatchID *string
	IsPending     bool
	Archived      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Split assigns a portion of a transaction's amount to one category.
type Split struct {
	ID            string
	TransactionID string
	AmountCents   int64
	Memo          string
	CategoryID    *string
}

// Rule categorizes transactions whose selected field matches.
type Rule struct {
	ID         string
	IsActive   bool
	MatchField string
	MatchType  string
	MatchValue string
	CategoryID string
	CreatedAt  time.Time
}

// BudgetAllocation ties a category to a month. SpentCents is a materialized
// aggregate, overwritten on every sync.
type BudgetAllocation struct {
	ID           string
	CategoryID   string
	MonthKey     string // YYYY-MM
	PlannedCents int64
	SpentCents   int64
}

// ImportBatch groups the transactions created from one CSV upload.
type ImportBatch struct {
	ID          string
	Source      string
	FileName    string
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// PendingDuplicate is a queued near-duplicate pair awaiting review.
type PendingDuplicate struct {
	ID             string
	TransactionAID string
	TransactionBID string
	Similarity     float64
	Status         string
	CreatedAt      time.Time
}
