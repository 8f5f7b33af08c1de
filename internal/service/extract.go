package service

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jask/budgeteer/internal/database/repository"
	"github.com/jask/budgeteer/internal/merchant"
)

// rowCandidate is a normalized transaction extracted from one CSV record,
// before identity resolution and persistence.
type rowCandidate struct {
	OccurredOn  time.Time
	PostedOn    *time.Time
	AmountCents int64 // absolute value
	Type        string
	Description string
	RawMerchant string
	Merchant    string // sanitized display text
}

// skipError marks a row as skippable rather than erroneous: no usable date,
// or a zero/unparseable amount.
type skipError struct{ reason string }

func (e skipError) Error() string { return "skip row: " + e.reason }

// Header synonym lists, evaluated in fixed order against normalized header
// keys. Bank exports disagree wildly on column naming; the normalization
// (lowercase, alphanumerics only) plus these lists absorbs the variance.
var (
	occurredHeaders    = []string{"transactiondate", "date", "posteddate", "clearingdate"}
	postedHeaders      = []string{"posteddate", "clearingdate"}
	amountHeaders      = []string{"amount"}
	debitHeaders       = []string{"debit", "debitamount", "withdrawal", "withdrawals"}
	creditHeaders      = []string{"credit", "creditamount", "deposit", "deposits"}
	merchantHeaders    = []string{"merchant", "merchantname", "payee", "name", "vendor"}
	descriptionHeaders = []string{"description", "memo", "details", "transactiondescription", "narrative"}
)

var headerJunkRe = regexp.MustCompile(`[^a-z0-9]`)

// normalizeHeader reduces a CSV header to its lookup key.
func normalizeHeader(h string) string {
	return headerJunkRe.ReplaceAllString(strings.ToLower(h), "")
}

// rowMap pairs normalized headers with a record's values.
func rowMap(headers, record []string) map[string]string {
	m := make(map[string]string, len(headers))
	for i, h := range headers {
		if i >= len(record) {
			break
		}
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, exists := m[key]; !exists {
			m[key] = strings.TrimSpace(record[i])
		}
	}
	return m
}

func firstPresent(m map[string]string, keys []string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

// extractRow maps one CSV record onto a candidate transaction, or reports a
// skipError when the row carries nothing importable.
func extractRow(m map[string]string) (rowCandidate, error) {
	var c rowCandidate

	dateStr := firstPresent(m, occurredHeaders)
	if dateStr == "" {
		return c, skipError{"no date column"}
	}
	occurred, err := parseRowDate(dateStr)
	if err != nil {
		return c, skipError{fmt.Sprintf("bad date %q", dateStr)}
	}
	c.OccurredOn = occurred

	if postedStr := firstPresent(m, postedHeaders); postedStr != "" {
		if posted, err := parseRowDate(postedStr); err == nil {
			c.PostedOn = &posted
		}
	}

	signedCents, err := resolveAmount(m)
	if err != nil {
		return c, err
	}
	if signedCents < 0 {
		c.Type = repository.TypeExpense
		c.AmountCents = -signedCents
	} else {
		c.Type = repository.TypeIncome
		c.AmountCents = signedCents
	}

	c.Description = firstPresent(m, descriptionHeaders)
	c.RawMerchant = firstPresent(m, merchantHeaders)
	if c.RawMerchant == "" {
		c.RawMerchant = c.Description
	}
	c.Merchant = merchant.Canonicalize(c.RawMerchant)
	return c, nil
}

// resolveAmount reads the amount column, else combines debit/credit columns
// (debit negative, credit positive). Zero or unparseable amounts skip the row.
func resolveAmount(m map[string]string) (int64, error) {
	if raw := firstPresent(m, amountHeaders); raw != "" {
		cents, err := parseAmountCents(raw)
		if err != nil {
			return 0, skipError{fmt.Sprintf("bad amount %q", raw)}
		}
		if cents == 0 {
			return 0, skipError{"zero amount"}
		}
		return cents, nil
	}

	var total int64
	if raw := firstPresent(m, debitHeaders); raw != "" {
		cents, err := parseAmountCents(raw)
		if err != nil {
			return 0, skipError{fmt.Sprintf("bad debit %q", raw)}
		}
		if cents < 0 {
			cents = -cents
		}
		total -= cents
	}
	if raw := firstPresent(m, creditHeaders); raw != "" {
		cents, err := parseAmountCents(raw)
		if err != nil {
			return 0, skipError{fmt.Sprintf("bad credit %q", raw)}
		}
		if cents < 0 {
			cents = -cents
		}
		total += cents
	}
	if total == 0 {
		return 0, skipError{"zero amount"}
	}
	return total, nil
}

var currencyJunkRe = regexp.MustCompile(`[$€£, ]`)

// parseAmountCents tolerates currency symbols, thousands separators and
// parenthesized negatives: "(12.34)" means -12.34.
func parseAmountCents(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = currencyJunkRe.ReplaceAllString(s, "")
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	cents := int64(math.Round(f * 100))
	if negative {
		cents = -cents
	}
	return cents, nil
}

// parseRowDate accepts ISO YYYY-MM-DD, MM/DD/YY(YY) and MM-DD-YY(YY).
// Two-digit years are assumed 2000+.
func parseRowDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	for _, sep := range []string{"/", "-"} {
		parts := strings.Split(s, sep)
		if len(parts) != 3 {
			continue
		}
		if len(parts[2]) == 2 {
			parts[2] = "20" + parts[2]
		}
		t, err := time.Parse("1-2-2006", strings.Join(parts, "-"))
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
