package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
)

// ============================================================================
// Parser Benchmarks
// ============================================================================

// BenchmarkParseDecimal covers the price and area columns, the hottest path
// of a listing row.
func BenchmarkParseDecimal(b *testing.B) {
	testCases := []string{
		"860000",
		"860 000",
		"1 234,56",
		"65.5",
		"zapytaj o cenę",
		"",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseDecimal(tc)
		}
	}
}

func BenchmarkParseInt(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseInt("1 234")
	}
}

// BenchmarkParseDate runs the relative phrase chain to its end and beyond.
func BenchmarkParseDate(b *testing.B) {
	testCases := []string{
		"wczoraj",
		"ponad tydzień temu",
		"14 dni temu",
		"2024-01-15",
		"15.01.2024",
		"nieznana",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseDate(tc, testNow)
		}
	}
}

func BenchmarkParseFloor(b *testing.B) {
	testCases := []string{"parter", "3 / winda", "10"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseFloor(tc)
		}
	}
}

// ============================================================================
// Row Benchmarks
// ============================================================================

func BenchmarkNormalize(b *testing.B) {
	header := fullHeader()
	row := rowOf(map[string]string{
		"locality":       "Białołęka",
		"street":         "ul. Józefa Mehoffera",
		"full_address":   "Warszawa Białołęka, ul. Józefa Mehoffera",
		"year_built":     "2019",
		"building_type":  "blok",
		"floor":          "3 / winda",
		"owner_type":     "prywatny",
		"rooms":          "3",
		"area":           "65,5",
		"price_total_zl": "860 000",
		"price_sqm_zl":   "13 130",
		"date_posted":    "5 dni temu",
		"url":            "https://example.pl/oferta/1",
		"has_basement":   "tak",
		"has_parking":    "nie",
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Normalize(row, header, testNow)
	}
}

// BenchmarkIsEmptyRow benchmarks empty row detection on wide rows.
func BenchmarkIsEmptyRow(b *testing.B) {
	tests := []struct {
		name string
		row  []string
	}{
		{"empty", make([]string, len(Columns))},
		{"last_cell_set", func() []string {
			row := make([]string, len(Columns))
			row[len(row)-1] = "data"
			return row
		}()},
	}

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				isEmptyRow(tt.row)
			}
		})
	}
}

// ============================================================================
// Streaming Benchmarks
// ============================================================================

func BenchmarkUTF8Sanitizer(b *testing.B) {
	data := bytes.Repeat([]byte("Warszawa Białołęka, ul. Józefa Mehoffera,860 000\n"), 1000)

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		io.Copy(io.Discard, NewUTF8Sanitizer(bytes.NewReader(data)))
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

func generateListingCSV(rows int) string {
	var sb strings.Builder
	sb.WriteString(listingHeader)
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&sb, "https://example.pl/oferta/%d,%d,%d 000,Dzielnica %d,,blok,%d,prywatny,tak,nie,%d dni temu\n",
			i, i%5+1, 300+i, i%20, i%10, i%30)
	}
	return sb.String()
}

// BenchmarkImport measures the importer against the in-memory store, so it
// tracks pipeline overhead rather than database time.
func BenchmarkImport(b *testing.B) {
	data := generateListingCSV(500)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		im := NewImporter(newFakeStore(), ImportOptions{BatchSize: 50, Logger: quietLogger()})
		if _, err := im.Import(context.Background(), strings.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}
