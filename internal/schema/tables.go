// Package schema describes the listing database and renders its DDL for
// each supported dialect.
package schema

// ColumnType is the storage type of a column.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeVarchar
	TypeSmallInt
	TypeInteger
	TypeNumeric
	TypeBool
	TypeDate
)

// ColumnDef defines one non-key column.
type ColumnDef struct {
	Name      string
	Type      ColumnType
	Length    int // varchar length
	Precision int // numeric precision
	Scale     int // numeric scale
	NotNull   bool
	// References names the table whose id column this column points at.
	References string
}

// Table defines one table. Every table has a generated integer id.
type Table struct {
	Name     string
	IDColumn string
	Columns  []ColumnDef
	// Unique lists columns with a unique index.
	Unique []string
}

func varchar(name string, n int) ColumnDef {
	return ColumnDef{Name: name, Type: TypeVarchar, Length: n}
}

func numeric(name string, p, s int) ColumnDef {
	return ColumnDef{Name: name, Type: TypeNumeric, Precision: p, Scale: s}
}

func ref(name, table string) ColumnDef {
	return ColumnDef{Name: name, Type: TypeInteger, NotNull: true, References: table}
}

// Tables lists the schema in creation order; referenced tables come first.
var Tables = []Table{
	{
		Name:     "location",
		IDColumn: "location_id",
		Columns: []ColumnDef{
			varchar("city", 255),
			varchar("locality", 255),
			varchar("city_district", 255),
			varchar("street", 255),
			varchar("full_address", 500),
			numeric("latitude", 9, 6),
			numeric("longitude", 9, 6),
		},
	},
	{
		Name:     "building",
		IDColumn: "building_id",
		Columns: []ColumnDef{
			{Name: "year_built", Type: TypeSmallInt},
			varchar("building_type", 100),
			{Name: "floor", Type: TypeSmallInt},
		},
	},
	{
		Name:     "owner",
		IDColumn: "owner_id",
		Columns: []ColumnDef{
			varchar("owner_type", 50),
			varchar("contact_name", 255),
			varchar("contact_phone", 50),
			varchar("contact_email", 255),
		},
	},
	{
		Name:     "features",
		IDColumn: "features_id",
		Columns: []ColumnDef{
			{Name: "has_basement", Type: TypeBool},
			{Name: "has_parking", Type: TypeBool},
			varchar("kitchen_type", 100),
			varchar("window_type", 100),
			varchar("ownership_type", 100),
			{Name: "equipment", Type: TypeText},
		},
	},
	{
		Name:     "listing",
		IDColumn: "listing_id",
		Columns: []ColumnDef{
			ref("location_id", "location"),
			ref("building_id", "building"),
			ref("owner_id", "owner"),
			ref("features_id", "features"),
			{Name: "rooms", Type: TypeSmallInt},
			numeric("area", 6, 2),
			numeric("price_total_zl", 12, 2),
			numeric("price_sqm_zl", 12, 2),
			numeric("price_per_sqm_detailed", 12, 2),
			{Name: "date_posted", Type: TypeDate},
			{Name: "photo_count", Type: TypeInteger},
			{Name: "url", Type: TypeText},
			{Name: "image_url", Type: TypeText},
			{Name: "description_text", Type: TypeText},
		},
		Unique: []string{"url"},
	},
}

// Lookup returns the table with the given name.
func Lookup(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
