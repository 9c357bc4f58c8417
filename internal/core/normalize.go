package core

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Columns lists every CSV column the importer consumes, in export order.
var Columns = []string{
	"locality", "street", "city_district", "full_address", "latitude", "longitude",
	"year_built", "building_type", "floor",
	"owner_type",
	"rooms", "area", "price_total_zl", "price_sqm_zl", "price_per_sqm_detailed",
	"date_posted", "photo_count", "url", "image_url", "description_text",
	"has_basement", "has_parking", "kitchen_type", "window_type", "ownership_type", "equipment",
}

// Normalize parses one CSV row into a Record. Columns missing from the header
// read as empty, except booleans, which stay null when their column is
// missing. A row that is blank everywhere or has no url is skipped.
func Normalize(row []string, idx HeaderIndex, now time.Time) (*Record, SkipReason) {
	if isEmptyRow(row) {
		return nil, SkipEmptyRow
	}

	get := func(name string) string {
		v, _ := getCell(row, idx, name)
		return v
	}

	rec := &Record{
		Locality:     ParseText(get("locality")),
		Street:       ParseText(get("street")),
		CityDistrict: ParseText(get("city_district")),
		FullAddress:  ParseText(get("full_address")),
		Latitude:     ParseDecimal(get("latitude")),
		Longitude:    ParseDecimal(get("longitude")),

		YearBuilt:    ParseInt(get("year_built")),
		BuildingType: ParseText(get("building_type")),
		Floor:        ParseFloor(get("floor")),

		OwnerType: ParseText(get("owner_type")),

		Rooms:               ParseInt(get("rooms")),
		Area:                ParseDecimal(get("area")),
		PriceTotal:          ParseDecimal(get("price_total_zl")),
		PriceSqm:            ParseDecimal(get("price_sqm_zl")),
		PricePerSqmDetailed: ParseDecimal(get("price_per_sqm_detailed")),
		DatePosted:          ParseDate(get("date_posted"), now),
		PhotoCount:          ParseInt(get("photo_count")),
		URL:                 ParseText(get("url")),
		ImageURL:            ParseText(get("image_url")),
		DescriptionText:     ParseText(get("description_text")),

		HasBasement:   boolCell(row, idx, "has_basement"),
		HasParking:    boolCell(row, idx, "has_parking"),
		KitchenType:   ParseText(get("kitchen_type")),
		WindowType:    ParseText(get("window_type")),
		OwnershipType: ParseText(get("ownership_type")),
		Equipment:     ParseText(get("equipment")),
	}

	if !rec.URL.Valid {
		return nil, SkipMissingURL
	}
	return rec, SkipNone
}

// getCell returns the raw value of a named column. ok is false when the
// header lacks the column or the row is too short to hold it.
func getCell(row []string, idx HeaderIndex, name string) (string, bool) {
	pos, ok := idx[name]
	if !ok || pos >= len(row) {
		return "", false
	}
	return row[pos], true
}

// boolCell keeps a missing column null; ParseBool alone would read it as
// an empty cell and return false.
func boolCell(row []string, idx HeaderIndex, name string) pgtype.Bool {
	v, ok := getCell(row, idx, name)
	if !ok {
		return pgtype.Bool{Valid: false}
	}
	return ParseBool(v)
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
