package core

// convert.go turns raw listing cells into nullable pgtype values.
//
// The export is scraped from a Polish portal, so the parsers accept both the
// Polish tokens the scraper emits and their English equivalents:
//   - numbers with space (or NBSP) thousands separators and comma decimals
//   - "zapytaj o cenę" in price columns
//   - "tak"/"nie" booleans
//   - "parter" floors and "3 / winda" style floor text
//   - relative dates such as "wczoraj" or "5 dni temu"
//
// Every Parse* function is total: bad input yields Valid=false, never an error.

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates a decimal after spaces are stripped, the text is
// lowercased and the comma is swapped for a dot. Exponents are capped at three
// digits so "1e999999" cannot expand into a huge string.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)(e[+-]?\d{1,3})?$`)

// exponentPrec is the mantissa precision used to expand "1.5e3" before
// pgtype.Numeric.Scan, which does not accept exponents.
const exponentPrec = 256

var (
	digitsRegex  = regexp.MustCompile(`\d+`)
	daysAgoRegex = regexp.MustCompile(`(\d+)\s*(?:dni|dzień|dzien|days?)\s*(?:temu|ago)`)
)

// dateLayouts are tried in order once no relative phrase matched. Day and
// month accept one or two digits.
var dateLayouts = []string{
	"2006-1-2",
	"2.1.2006",
	"2/1/2006",
	"2006/1/2",
}

// nullTokens are textual nulls shared by the numeric parsers.
var nullTokens = map[string]bool{"": true, "none": true, "null": true}

// priceOnRequest marks listings without a published price.
var priceOnRequest = []string{"zapytaj o cenę", "zapytaj o cene", "ask for price"}

var (
	trueTokens  = map[string]bool{"tak": true, "yes": true, "true": true, "1": true, "t": true}
	falseTokens = map[string]bool{"nie": true, "no": true, "false": true, "0": true, "f": true, "": true}
)

// groundFloor holds the whole-cell tokens meaning floor 0.
var groundFloor = map[string]bool{"parter": true, "ground": true}

// relativeDate is one phrase check of ParseDate. Order matters: "ponad
// tydzień" contains "tydzień", so the longer phrase must be tested first.
type relativeDate struct {
	phrases []string
	days    int
}

var relativeDates = []relativeDate{
	{phrases: []string{"wczoraj", "yesterday"}, days: 1},
	{phrases: []string{"dzisiaj", "today"}, days: 0},
	{phrases: []string{"ponad tydzień", "ponad tydzien", "over a week"}, days: 8},
	{phrases: []string{"tydzień", "tydzien", "week"}, days: 7},
}

// ParseText trims s. Empty results are null.
func ParseText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ParseInt parses an integer written with optional space thousands
// separators ("1 234"). "none" and "null" are null, as is anything that does
// not fit in an int32.
func ParseInt(s string) pgtype.Int4 {
	cleaned := stripSpaces(s)
	if nullTokens[strings.ToLower(cleaned)] {
		return pgtype.Int4{Valid: false}
	}

	n, err := strconv.ParseInt(cleaned, 10, 32)
	if err != nil {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(n), Valid: true}
}

// ParseDecimal parses a decimal that may use spaces as thousands separators
// and a comma as the decimal point ("1 234,56").
func ParseDecimal(s string) pgtype.Numeric {
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, phrase := range priceOnRequest {
		if lower == phrase {
			return pgtype.Numeric{Valid: false}
		}
	}

	cleaned := strings.ReplaceAll(stripSpaces(lower), ",", ".")
	if nullTokens[cleaned] || !numericRegex.MatchString(cleaned) {
		return pgtype.Numeric{Valid: false}
	}
	if strings.Contains(cleaned, "e") {
		f, _, err := big.ParseFloat(cleaned, 10, exponentPrec, big.ToNearestEven)
		if err != nil {
			return pgtype.Numeric{Valid: false}
		}
		cleaned = f.Text('f', -1)
	}

	var n pgtype.Numeric
	if err := n.Scan(cleaned); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// ParseBool maps yes/no style tokens in Polish and English.
// An empty cell is false, not null; unknown tokens are null.
func ParseBool(s string) pgtype.Bool {
	s = strings.ToLower(strings.TrimSpace(s))

	switch {
	case trueTokens[s]:
		return pgtype.Bool{Bool: true, Valid: true}
	case falseTokens[s]:
		return pgtype.Bool{Bool: false, Valid: true}
	default:
		return pgtype.Bool{Valid: false}
	}
}

// ParseFloor reads floor text. "parter" is the ground floor (0); otherwise
// the first run of digits wins, so "3 / winda" is 3.
func ParseFloor(s string) pgtype.Int4 {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return pgtype.Int4{Valid: false}
	}
	if groundFloor[s] {
		return pgtype.Int4{Int32: 0, Valid: true}
	}

	digits := digitsRegex.FindString(s)
	if digits == "" {
		return pgtype.Int4{Valid: false}
	}
	n, err := strconv.ParseInt(digits, 10, 32)
	if err != nil {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(n), Valid: true}
}

// ParseDate resolves a posting date relative to now. Relative phrases are
// checked first, in a fixed order, then "N dni temu", then absolute layouts.
func ParseDate(s string, now time.Time) pgtype.Date {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return pgtype.Date{Valid: false}
	}

	for _, rel := range relativeDates {
		for _, phrase := range rel.phrases {
			if strings.Contains(s, phrase) {
				return daysBefore(now, rel.days)
			}
		}
	}

	if m := daysAgoRegex.FindStringSubmatch(s); m != nil {
		days, err := strconv.Atoi(m[1])
		if err == nil {
			return daysBefore(now, days)
		}
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	return pgtype.Date{Valid: false}
}

// daysBefore returns the calendar date n days before now.
func daysBefore(now time.Time, n int) pgtype.Date {
	d := now.AddDate(0, 0, -n)
	return pgtype.Date{
		Time:  time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
		Valid: true,
	}
}

// stripSpaces trims s and drops every interior space, including the
// non-breaking spaces the portal uses as thousands separators.
func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are trimmed and lowercased for case-insensitive matching.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[key]; dup {
			continue
		}
		idx[key] = i
	}
	return idx
}
