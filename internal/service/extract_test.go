package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/budgeteer/internal/database/repository"
)

func TestParseAmountCents(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw  string
		want int64
	}{
		{"1200", 120000},
		{"$1,200.00", 120000},
		{"-45.67", -4567},
		{"(42.10)", -4210},
		{"£3.50", 350},
		{"+12.00", 1200},
		{"0.005", 1}, // rounds half away from zero
	}
	for _, tc := range cases {
		got, err := parseAmountCents(tc.raw)
		require.NoError(t, err, "raw %q", tc.raw)
		require.Equal(t, tc.want, got, "raw %q", tc.raw)
	}

	_, err := parseAmountCents("")
	require.Error(t, err)
	_, err = parseAmountCents("n/a")
	require.Error(t, err)
}

func TestParseRowDate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw  string
		want string
	}{
		{"2024-03-05", "2024-03-05"},
		{"03/05/2024", "2024-03-05"},
		{"3/5/24", "2024-03-05"},
		{"03-05-2024", "2024-03-05"},
		{"12/31/99", "2099-12-31"},
	}
	for _, tc := range cases {
		got, err := parseRowDate(tc.raw)
		require.NoError(t, err, "raw %q", tc.raw)
		require.Equal(t, tc.want, got.Format("2006-01-02"), "raw %q", tc.raw)
	}

	_, err := parseRowDate("last tuesday")
	require.Error(t, err)
}

func TestExtractRowAmountColumn(t *testing.T) {
	t.Parallel()
	headers := []string{"Transaction Date", "Amount", "Description", "Merchant"}
	record := []string{"2024-03-05", "-42.10", "CARD PURCHASE STARBUCKS #1234", "STARBUCKS STORE #1234"}

	c, err := extractRow(rowMap(headers, record))
	require.NoError(t, err)
	require.Equal(t, repository.TypeExpense, c.Type)
	require.Equal(t, int64(4210), c.AmountCents)
	require.Equal(t, "STARBUCKS STORE #1234", c.RawMerchant)
	require.Equal(t, "Starbucks", c.Merchant)
	require.Equal(t, "CARD PURCHASE STARBUCKS #1234", c.Description)
}

func TestExtractRowDebitCreditColumns(t *testing.T) {
	t.Parallel()
	headers := []string{"Date", "Debit", "Credit", "Description"}

	c, err := extractRow(rowMap(headers, []string{"2024-03-05", "18.20", "", "WOOLWORTHS METRO"}))
	require.NoError(t, err)
	require.Equal(t, repository.TypeExpense, c.Type)
	require.Equal(t, int64(1820), c.AmountCents)
	// No merchant column, so the description doubles as the raw merchant.
	require.Equal(t, "WOOLWORTHS METRO", c.RawMerchant)

	c, err = extractRow(rowMap(headers, []string{"2024-03-06", "", "2500.00", "PAYROLL ACME"}))
	require.NoError(t, err)
	require.Equal(t, repository.TypeIncome, c.Type)
	require.Equal(t, int64(250000), c.AmountCents)
}

func TestExtractRowSkips(t *testing.T) {
	t.Parallel()
	headers := []string{"Date", "Amount", "Description"}

	_, err := extractRow(rowMap(headers, []string{"", "12.00", "x"}))
	var skip skipError
	require.ErrorAs(t, err, &skip)

	_, err = extractRow(rowMap(headers, []string{"not-a-date", "12.00", "x"}))
	require.ErrorAs(t, err, &skip)

	_, err = extractRow(rowMap(headers, []string{"2024-03-05", "0.00", "x"}))
	require.ErrorAs(t, err, &skip)
}

func TestFingerprintStableAcrossFormatting(t *testing.T) {
	t.Parallel()
	headers := []string{"Date", "Amount", "Merchant"}
	a, err := extractRow(rowMap(headers, []string{"2024-03-05", "$1,200.00", "ACME CORP"}))
	require.NoError(t, err)
	b, err := extractRow(rowMap(headers, []string{"03/05/2024", "1200", "acme   corp"}))
	require.NoError(t, err)

	fpA := Fingerprint(a.OccurredOn, a.PostedOn, a.AmountCents, a.Merchant, a.Description)
	fpB := Fingerprint(b.OccurredOn, b.PostedOn, b.AmountCents, b.Merchant, b.Description)
	require.Equal(t, fpA, fpB)
}

func TestFingerprintSensitivity(t *testing.T) {
	t.Parallel()
	occurred := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	base := Fingerprint(occurred, nil, -4210, "Amazon", "order 1")

	require.NotEqual(t, base, Fingerprint(occurred.AddDate(0, 0, 1), nil, -4210, "Amazon", "order 1"))
	require.NotEqual(t, base, Fingerprint(occurred, nil, -4211, "Amazon", "order 1"))
	require.NotEqual(t, base, Fingerprint(occurred, nil, 4210, "Amazon", "order 1"))
	require.NotEqual(t, base, Fingerprint(occurred, nil, -4210, "Amazon", "order 2"))

	posted := occurred.AddDate(0, 0, 2)
	require.NotEqual(t, base, Fingerprint(occurred, &posted, -4210, "Amazon", "order 1"))
}
