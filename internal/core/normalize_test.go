package core

import (
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func fullHeader() HeaderIndex {
	return MakeHeaderIndex(Columns)
}

// rowOf builds a row in Columns order from name/value pairs.
func rowOf(values map[string]string) []string {
	row := make([]string, len(Columns))
	for i, name := range Columns {
		row[i] = values[name]
	}
	return row
}

func TestNormalize_FullRow(t *testing.T) {
	row := rowOf(map[string]string{
		"locality":         "Białołęka",
		"street":           "ul. Józefa Mehoffera",
		"city_district":    "Białołęka",
		"full_address":     "Warszawa Białołęka, ul. Józefa Mehoffera",
		"latitude":         "52.3201",
		"longitude":        "20.9712",
		"year_built":       "2019",
		"building_type":    "blok",
		"floor":            "3 / winda",
		"owner_type":       "prywatny",
		"rooms":            "3",
		"area":             "65,5",
		"price_total_zl":   "860 000",
		"price_sqm_zl":     "13 130",
		"date_posted":      "wczoraj",
		"photo_count":      "12",
		"url":              " https://example.pl/oferta/1 ",
		"image_url":        "https://example.pl/img/1.jpg",
		"description_text": "Słoneczne mieszkanie",
		"has_basement":     "tak",
		"has_parking":      "nie",
		"kitchen_type":     "oddzielna",
		"window_type":      "plastikowe",
		"ownership_type":   "pełna własność",
		"equipment":        "zmywarka, lodówka",
	})

	rec, reason := Normalize(row, fullHeader(), testNow)
	if reason != SkipNone {
		t.Fatalf("reason = %q, want none", reason)
	}

	if rec.URL.String != "https://example.pl/oferta/1" {
		t.Errorf("URL = %q", rec.URL.String)
	}
	if !rec.Floor.Valid || rec.Floor.Int32 != 3 {
		t.Errorf("Floor = %+v, want 3", rec.Floor)
	}
	if !rec.Rooms.Valid || rec.Rooms.Int32 != 3 {
		t.Errorf("Rooms = %+v, want 3", rec.Rooms)
	}
	if f, _ := rec.PriceTotal.Float64Value(); f.Float64 != 860000 {
		t.Errorf("PriceTotal = %v, want 860000", f.Float64)
	}
	if f, _ := rec.Area.Float64Value(); f.Float64 != 65.5 {
		t.Errorf("Area = %v, want 65.5", f.Float64)
	}
	if want := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC); !rec.DatePosted.Time.Equal(want) {
		t.Errorf("DatePosted = %v, want %v", rec.DatePosted.Time, want)
	}
	if !rec.HasBasement.Valid || !rec.HasBasement.Bool {
		t.Errorf("HasBasement = %+v, want true", rec.HasBasement)
	}
	if !rec.HasParking.Valid || rec.HasParking.Bool {
		t.Errorf("HasParking = %+v, want false", rec.HasParking)
	}
	if rec.PricePerSqmDetailed.Valid {
		t.Errorf("PricePerSqmDetailed should be null for an empty cell")
	}
}

func TestNormalize_Skips(t *testing.T) {
	header := fullHeader()

	tests := []struct {
		name string
		row  []string
		want SkipReason
	}{
		{
			name: "all empty",
			row:  rowOf(nil),
			want: SkipEmptyRow,
		},
		{
			name: "whitespace only",
			row:  []string{" ", "\t", ""},
			want: SkipEmptyRow,
		},
		{
			name: "zero cells",
			row:  []string{},
			want: SkipEmptyRow,
		},
		{
			name: "missing url",
			row:  rowOf(map[string]string{"rooms": "2", "locality": "Mokotów"}),
			want: SkipMissingURL,
		},
		{
			name: "blank url",
			row:  rowOf(map[string]string{"rooms": "2", "url": "   "}),
			want: SkipMissingURL,
		},
		{
			name: "url only",
			row:  rowOf(map[string]string{"url": "https://example.pl/2"}),
			want: SkipNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, reason := Normalize(tt.row, header, testNow)
			if reason != tt.want {
				t.Fatalf("reason = %q, want %q", reason, tt.want)
			}
			if (rec == nil) != (tt.want != SkipNone) {
				t.Errorf("record = %v for reason %q", rec, reason)
			}
		})
	}
}

func TestNormalize_MissingColumns(t *testing.T) {
	header := MakeHeaderIndex([]string{"URL", "Rooms", "has_parking"})

	rec, reason := Normalize([]string{"https://example.pl/3", "2", ""}, header, testNow)
	if reason != SkipNone {
		t.Fatalf("reason = %q", reason)
	}

	// Present but empty boolean cell reads as false.
	if !rec.HasParking.Valid || rec.HasParking.Bool {
		t.Errorf("HasParking = %+v, want valid false", rec.HasParking)
	}
	// Column absent from the header stays null.
	if rec.HasBasement.Valid {
		t.Errorf("HasBasement = %+v, want null", rec.HasBasement)
	}
	if rec.Locality.Valid || rec.Floor.Valid || rec.Area.Valid {
		t.Errorf("absent columns should be null: %+v", rec)
	}
}

func TestNormalize_ShortRow(t *testing.T) {
	header := MakeHeaderIndex([]string{"url", "rooms", "has_basement"})

	rec, reason := Normalize([]string{"https://example.pl/4"}, header, testNow)
	if reason != SkipNone {
		t.Fatalf("reason = %q", reason)
	}
	if rec.Rooms.Valid {
		t.Errorf("Rooms = %+v, want null", rec.Rooms)
	}
	if rec.HasBasement.Valid {
		t.Errorf("HasBasement beyond row length = %+v, want null", rec.HasBasement)
	}
}

func TestRecordColumns(t *testing.T) {
	rec, _ := Normalize(rowOf(map[string]string{
		"url":        "https://example.pl/5",
		"owner_type": "agencja",
		"rooms":      "4",
	}), fullHeader(), testNow)

	fk := ForeignKeys{LocationID: 1, BuildingID: 2, OwnerID: 3, FeaturesID: 4}
	cols := rec.ListingColumns(fk)

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		if c.Name == "url" {
			t.Error("ListingColumns must not contain url")
		}
	}
	if !strings.HasPrefix(strings.Join(names, ","), "location_id,building_id,owner_id,features_id") {
		t.Errorf("columns = %v", names)
	}

	owner := rec.OwnerColumns()
	if len(owner) != 1 || owner[0].IsNull() {
		t.Errorf("OwnerColumns = %+v", owner)
	}
	for _, c := range rec.LocationColumns() {
		if !c.IsNull() {
			t.Errorf("location column %s should be null", c.Name)
		}
	}
}

func TestColumnIsNull(t *testing.T) {
	rec := &Record{}
	tests := []struct {
		name string
		col  Column
		want bool
	}{
		{name: "nil valuer", col: Column{Name: "x"}, want: true},
		{name: "invalid text", col: Column{Name: "x", Value: rec.Street}, want: true},
		{name: "valid text", col: Column{Name: "x", Value: ParseText("a")}, want: false},
		{name: "false bool", col: Column{Name: "x", Value: ParseBool("nie")}, want: false},
		{name: "zero floor", col: Column{Name: "x", Value: ParseFloor("parter")}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.col.IsNull(); got != tt.want {
				t.Errorf("IsNull() = %v, want %v", got, tt.want)
			}
		})
	}
}
