// Package service implements the import, categorization and budget-sync
// pipeline on top of the repositories.
package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Fingerprint derives the duplicate-detection key for a transaction. The
// composition is order-stable and the amount is rendered with exactly two
// decimals, so two imports of the same bank row always agree regardless of
// how the source formatted the number.
func Fingerprint(occurredOn time.Time, postedOn *time.Time, amountCents int64, merchant, description string) string {
	parts := []string{
		"occurred:" + occurredOn.UTC().Format("2006-01-02"),
		"posted:" + formatOptionalDate(postedOn),
		fmt.Sprintf("amount:%.2f", float64(amountCents)/100),
		"merchant:" + normalizeForHash(merchant),
		"description:" + normalizeForHash(description),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func normalizeForHash(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
