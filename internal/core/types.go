package core

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// Record is one normalized CSV row. Every field is nullable; Valid=false
// means the cell was missing, empty or unparseable.
type Record struct {
	// Location
	Locality     pgtype.Text
	Street       pgtype.Text
	CityDistrict pgtype.Text
	FullAddress  pgtype.Text
	Latitude     pgtype.Numeric
	Longitude    pgtype.Numeric

	// Building
	YearBuilt    pgtype.Int4
	BuildingType pgtype.Text
	Floor        pgtype.Int4

	// Owner
	OwnerType pgtype.Text

	// Listing
	Rooms               pgtype.Int4
	Area                pgtype.Numeric
	PriceTotal          pgtype.Numeric
	PriceSqm            pgtype.Numeric
	PricePerSqmDetailed pgtype.Numeric
	DatePosted          pgtype.Date
	PhotoCount          pgtype.Int4
	URL                 pgtype.Text
	ImageURL            pgtype.Text
	DescriptionText     pgtype.Text

	// Features
	HasBasement   pgtype.Bool
	HasParking    pgtype.Bool
	KitchenType   pgtype.Text
	WindowType    pgtype.Text
	OwnershipType pgtype.Text
	Equipment     pgtype.Text
}

// LocationColumns returns the location row this record points at.
// The importer never fills city; it stays null.
func (r *Record) LocationColumns() []Column {
	return []Column{
		{Name: "locality", Value: r.Locality},
		{Name: "street", Value: r.Street},
		{Name: "city_district", Value: r.CityDistrict},
		{Name: "full_address", Value: r.FullAddress},
		{Name: "latitude", Value: r.Latitude},
		{Name: "longitude", Value: r.Longitude},
	}
}

// BuildingColumns returns the building row this record points at.
func (r *Record) BuildingColumns() []Column {
	return []Column{
		{Name: "year_built", Value: r.YearBuilt},
		{Name: "building_type", Value: r.BuildingType},
		{Name: "floor", Value: r.Floor},
	}
}

// OwnerColumns returns the owner row. Contact columns are left null.
func (r *Record) OwnerColumns() []Column {
	return []Column{
		{Name: "owner_type", Value: r.OwnerType},
	}
}

// FeaturesColumns returns the features row this record points at.
func (r *Record) FeaturesColumns() []Column {
	return []Column{
		{Name: "has_basement", Value: r.HasBasement},
		{Name: "has_parking", Value: r.HasParking},
		{Name: "kitchen_type", Value: r.KitchenType},
		{Name: "window_type", Value: r.WindowType},
		{Name: "ownership_type", Value: r.OwnershipType},
		{Name: "equipment", Value: r.Equipment},
	}
}

// ListingColumns returns every mutable listing column, foreign keys
// included. The url identity column is not part of it.
func (r *Record) ListingColumns(fk ForeignKeys) []Column {
	return []Column{
		{Name: "location_id", Value: pgtype.Int8{Int64: fk.LocationID, Valid: true}},
		{Name: "building_id", Value: pgtype.Int8{Int64: fk.BuildingID, Valid: true}},
		{Name: "owner_id", Value: pgtype.Int8{Int64: fk.OwnerID, Valid: true}},
		{Name: "features_id", Value: pgtype.Int8{Int64: fk.FeaturesID, Valid: true}},
		{Name: "rooms", Value: r.Rooms},
		{Name: "area", Value: r.Area},
		{Name: "price_total_zl", Value: r.PriceTotal},
		{Name: "price_sqm_zl", Value: r.PriceSqm},
		{Name: "price_per_sqm_detailed", Value: r.PricePerSqmDetailed},
		{Name: "date_posted", Value: r.DatePosted},
		{Name: "photo_count", Value: r.PhotoCount},
		{Name: "image_url", Value: r.ImageURL},
		{Name: "description_text", Value: r.DescriptionText},
	}
}

// ForeignKeys holds the resolved reference entity ids of one listing.
type ForeignKeys struct {
	LocationID int64
	BuildingID int64
	OwnerID    int64
	FeaturesID int64
}

// SkipReason explains why a row never reached the database.
type SkipReason string

const (
	SkipNone       SkipReason = ""
	SkipEmptyRow   SkipReason = "empty row"
	SkipMissingURL SkipReason = "missing url"
)

// UpsertOutcome reports what UpsertListing did.
type UpsertOutcome int

const (
	ListingCreated UpsertOutcome = iota + 1
	ListingUpdated
)

func (o UpsertOutcome) String() string {
	switch o {
	case ListingCreated:
		return "created"
	case ListingUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// ImportProgress is reported after every committed batch.
type ImportProgress struct {
	RunID    string
	Batch    int
	Imported int // cumulative
	Skipped  int
	Errors   int
}

// ProgressCallback is called after each batch commit.
type ProgressCallback func(ImportProgress)

// Summary contains the final counts of an import run. Skipped rows and
// malformed CSV rows are counted as they are read; database outcomes are
// counted when their batch commits. When Import returns an error the database
// counts stop at the last committed batch.
type Summary struct {
	RunID    string
	FileName string
	Imported int // rows upserted (created + updated)
	Skipped  int // empty rows and rows without url
	Errors   int // rows that failed to parse or persist
	Created  int
	Updated  int
	Batches  int
	Bytes    int64
	Duration time.Duration
}
