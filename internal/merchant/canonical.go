// Package merchant derives display names and dedup keys from raw payee text.
package merchant

import (
	"regexp"
	"strings"

	"golang.org/x/text/transform"
)

// override maps a raw-candidate pattern to a fixed canonical name. First
// match wins and replaces the whole candidate.
type override struct {
	pattern *regexp.Regexp
	name    string
}

var overrides = []override{
	{regexp.MustCompile(`(?i)^(amzn|amazon)`), "Amazon"},
	{regexp.MustCompile(`(?i)^paypal\b`), "PayPal"},
	{regexp.MustCompile(`(?i)^uber\s*eats`), "Uber Eats"},
	{regexp.MustCompile(`(?i)^uber\b`), "Uber"},
	{regexp.MustCompile(`(?i)^lyft\b`), "Lyft"},
	{regexp.MustCompile(`(?i)^mcdonald`), "McDonald's"},
	{regexp.MustCompile(`(?i)^7-?eleven`), "7-Eleven"},
	{regexp.MustCompile(`(?i)^(wal-?mart|wm supercenter)`), "Walmart"},
	{regexp.MustCompile(`(?i)^sq\b`), "Square"},
	{regexp.MustCompile(`(?i)^(doordash|dd doordash)`), "DoorDash"},
	{regexp.MustCompile(`(?i)^google\b`), "Google"},
	{regexp.MustCompile(`(?i)^(apl\b|apple\b)`), "Apple"},
}

var businessSuffixes = map[string]bool{
	"inc": true, "llc": true, "corp": true, "co": true, "ltd": true,
	"lp": true, "llp": true, "plc": true, "pllc": true, "pc": true,
	"company": true, "corporation": true, "incorporated": true,
	"limited": true, "gmbh": true, "pty": true,
}

var stateCodes = map[string]bool{
	"al": true, "ak": true, "az": true, "ar": true, "ca": true, "ct": true,
	"de": true, "fl": true, "ga": true, "hi": true, "id": true, "il": true,
	"in": true, "ia": true, "ks": true, "ky": true, "la": true, "me": true,
	"md": true, "ma": true, "mi": true, "mn": true, "ms": true, "mo": true,
	"mt": true, "ne": true, "nv": true, "nh": true, "nj": true, "nm": true,
	"ny": true, "nc": true, "nd": true, "oh": true, "ok": true, "or": true,
	"pa": true, "ri": true, "sc": true, "sd": true, "tn": true, "tx": true,
	"ut": true, "vt": true, "va": true, "wa": true, "wv": true, "wi": true,
	"wy": true, "dc": true,
}

// locationStopwords covers countries, US state names and generic locality
// words that trail bank descriptors ("STARBUCKS STORE 1234 KANSAS CITY MO").
var locationStopwords = map[string]bool{
	"usa": true, "us": true, "america": true, "canada": true, "uk": true,
	"australia": true, "city": true, "township": true, "county": true,
	"alabama": true, "alaska": true, "arizona": true, "arkansas": true,
	"california": true, "colorado": true, "connecticut": true,
	"delaware": true, "florida": true, "georgia": true, "hawaii": true,
	"idaho": true, "illinois": true, "indiana": true, "iowa": true,
	"kansas": true, "kentucky": true, "louisiana": true, "maine": true,
	"maryland": true, "massachusetts": true, "michigan": true,
	"minnesota": true, "mississippi": true, "missouri": true,
	"montana": true, "nebraska": true, "nevada": true, "ohio": true,
	"oklahoma": true, "oregon": true, "pennsylvania": true, "texas": true,
	"tennessee": true, "utah": true, "vermont": true, "virginia": true,
	"washington": true, "wisconsin": true, "wyoming": true,
}

var ordinalTokens = map[string]bool{
	"1st": true, "2nd": true, "3rd": true, "4th": true, "5th": true,
	"6th": true, "7th": true, "8th": true, "9th": true, "10th": true,
}

var domainSuffixes = []string{
	".com", ".org", ".net", ".io", ".co", ".us", ".biz", ".info", ".shop",
}

var (
	urlPrefixRe   = regexp.MustCompile(`(?i)^(https?://)?(www\.)`)
	schemeRe      = regexp.MustCompile(`(?i)^https?://`)
	dashRe        = regexp.MustCompile("[–—]")
	punctToSpace  = regexp.MustCompile(`[.,_*:;!?()\[\]{}"+=|\\~` + "`" + `<>/]`)
	multiApos     = regexp.MustCompile(`'{2,}`)
	disallowedRe  = regexp.MustCompile(`[^A-Za-z0-9 '\-]`)
	multiSpaceRe  = regexp.MustCompile(`\s+`)
	storeNumberRe = regexp.MustCompile(`(?i)[\s\-]+(store\s+)?#?\d+$`)
	digitsOnlyRe  = regexp.MustCompile(`^[\d#]+$`)
)

// Canonicalize reduces raw payee text to a human-presentable merchant name.
// It is deterministic and performs no I/O; an empty result means nothing
// salvageable was found.
func Canonicalize(raw string) string {
	s := strings.TrimSpace(strings.ReplaceAll(raw, " ", " "))
	if s == "" {
		return ""
	}
	if stripped, _, err := transform.String(diacriticStripper, s); err == nil {
		s = stripped
	}

	s = schemeRe.ReplaceAllString(s, "")
	s = urlPrefixRe.ReplaceAllString(s, "")

	lower := strings.ToLower(s)
	for _, suffix := range domainSuffixes {
		if strings.HasSuffix(lower, suffix) {
			s = s[:len(s)-len(suffix)]
			break
		}
	}

	s = dashRe.ReplaceAllString(s, "-")
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "@", " at ")
	s = punctToSpace.ReplaceAllString(s, " ")
	s = multiApos.ReplaceAllString(s, "'")
	s = disallowedRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(multiSpaceRe.ReplaceAllString(s, " "))

	// Repeatedly strip a trailing store/number marker so chained markers
	// like "Store 1234 2" fully unwind.
	preTrim := s
	for {
		next := storeNumberRe.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = strings.TrimSpace(next)
	}
	if s == "" {
		s = preTrim
	}

	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		tokens = strings.Fields(preTrim)
	}
	tokens = trimTailTokens(tokens)

	var kept []string
	for _, tok := range tokens {
		if digitsOnlyRe.MatchString(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	candidate := strings.Join(kept, " ")
	if candidate == "" {
		return ""
	}

	for _, o := range overrides {
		if o.pattern.MatchString(candidate) {
			return o.name
		}
	}
	return titleCase(candidate)
}

// trimTailTokens walks the token list from the tail, dropping business
// suffixes, ordinals, location stopwords, state codes and residual numeric
// junk. Trimming never empties the list outright: if it would, the pre-trim
// tokens are returned unchanged.
func trimTailTokens(tokens []string) []string {
	original := tokens
	droppedNumeric := false
	for len(tokens) > 0 {
		last := strings.ToLower(tokens[len(tokens)-1])
		switch {
		case businessSuffixes[last], ordinalTokens[last]:
		case stateCodes[last], locationStopwords[last]:
		case digitsOnlyRe.MatchString(last):
			droppedNumeric = true
		case droppedNumeric && (last == "store" || last == "str"):
			// "Store" left dangling once its number was removed.
		default:
			return tokens
		}
		tokens = tokens[:len(tokens)-1]
	}
	return original
}

// titleCase capitalizes each word, preserving short all-caps tokens
// (acronyms like "KFC" or "BP") verbatim.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) <= 3 && isAcronym(w) {
			continue
		}
		words[i] = capitalizeWord(strings.ToLower(w))
	}
	return strings.Join(words, " ")
}

func isAcronym(w string) bool {
	for _, r := range w {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '&' {
			return false
		}
	}
	return len(w) > 0
}

// capitalizeWord uppercases the first letter and any letter following a
// hyphen or apostrophe.
func capitalizeWord(w string) string {
	runes := []rune(w)
	capNext := true
	for i, r := range runes {
		if capNext && r >= 'a' && r <= 'z' {
			runes[i] = r - 'a' + 'A'
		}
		capNext = r == '-' || r == '\''
	}
	return string(runes)
}
