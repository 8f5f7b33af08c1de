package merchant

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"plain name", "Starbucks", "Starbucks"},
		{"store number stripped", "Starbucks Store #1234 Kansas City MO", "Starbucks"},
		{"chained store markers", "Starbucks Store #1234 #2", "Starbucks"},
		{"override wins", "AMZN Mktp US *12345", "Amazon"},
		{"override amazon spelled out", "AMAZON.COM*M12AB34CD", "Amazon"},
		{"domain suffix stripped", "Target.com", "Target"},
		{"url prefix stripped", "www.target.com", "Target"},
		{"ampersand expanded", "Barnes&Noble", "Barnes And Noble"},
		{"business suffix trimmed", "Acme Widgets LLC", "Acme Widgets"},
		{"state code trimmed", "Joes Diner TX", "Joes Diner"},
		{"acronym preserved", "KFC 0421", "KFC"},
		{"apostrophe kept", "dan murphy's", "Dan Murphy'S"},
		{"slash to space", "DAN MURPHY'S/580 MELBOURN", "DAN Murphy'S Melbourn"},
		{"suffix trim never empties", "LLC", "LLC"},
		{"mcdonalds override", "MCDONALD'S F32881", "McDonald's"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Canonicalize(tc.in))
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"AMZN Mktp US *12345",
		"Starbucks Store #1234 Kansas City MO",
		"Target.com",
		"Barnes&Noble",
		"dan murphy's",
		"7-ELEVEN 34412",
		"WOOLWORTHS 123 METRO",
		"SQ *COFFEE CART",
	}
	for _, in := range inputs {
		once := Canonicalize(in)
		require.Equal(t, once, Canonicalize(once), "input %q", in)
	}
}

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "target", NormalizeKey("Target.com"))
	require.Equal(t, "target", NormalizeKey("TARGET.COM"))
	require.Equal(t, NormalizeKey("Target.com"), NormalizeKey("target"))
	require.Equal(t, "cafenero", NormalizeKey("Café Nero"))
	require.Equal(t, "", NormalizeKey(""))
	require.Equal(t, "", NormalizeKey("   "))
	require.Equal(t, NormalizeKey("STARBUCKS STORE #1234"), NormalizeKey("Starbucks"))
}
