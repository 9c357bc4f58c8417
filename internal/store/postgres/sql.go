package postgres

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/listings/internal/core"
)

// quoteIdentifier safely quotes a PostgreSQL identifier.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// args collects positional parameters and hands out their placeholders.
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

func valueOf(c core.Column) any {
	if c.Value == nil {
		return nil
	}
	return c.Value
}

// findSQL renders the lowest-id lookup. Null columns are matched with IS NULL
// so they are never bound.
func findSQL(table, idColumn string, match []core.Column) (string, []any) {
	var a args
	conds := make([]string, 0, len(match))
	for _, c := range match {
		if c.IsNull() {
			conds = append(conds, quoteIdentifier(c.Name)+" IS NULL")
			continue
		}
		conds = append(conds, quoteIdentifier(c.Name)+" = "+a.add(valueOf(c)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", quoteIdentifier(idColumn), quoteIdentifier(table))
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY %s LIMIT 1", quoteIdentifier(idColumn))
	return b.String(), a
}

func insertSQL(table, idColumn string, values []core.Column) (string, []any) {
	if len(values) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s",
			quoteIdentifier(table), quoteIdentifier(idColumn)), nil
	}

	var a args
	cols := make([]string, len(values))
	placeholders := make([]string, len(values))
	for i, c := range values {
		cols[i] = quoteIdentifier(c.Name)
		placeholders[i] = a.add(valueOf(c))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		quoteIdentifier(table),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		quoteIdentifier(idColumn),
	), a
}

func updateSQL(table, idColumn string, id int64, values []core.Column) (string, []any) {
	var a args
	sets := make([]string, len(values))
	for i, c := range values {
		sets[i] = quoteIdentifier(c.Name) + " = " + a.add(valueOf(c))
	}
	where := a.add(id)
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		quoteIdentifier(table),
		strings.Join(sets, ", "),
		quoteIdentifier(idColumn),
		where,
	), a
}

const listingColumns = `l.listing_id, l.rooms::int4, l.area::float8, l.price_total_zl::float8, l.price_sqm_zl::float8,
	loc.location_id, loc.city, loc.locality, loc.city_district, loc.street, loc.full_address`

// filterWhere renders the WHERE clause of a listing filter. The caller joins
// location as loc when f.NeedsLocation().
func filterWhere(f core.ListingFilter, a *args) string {
	var conds []string
	bound := func(col, op string, v *float64) {
		if v != nil {
			conds = append(conds, col+" "+op+" "+a.add(*v))
		}
	}
	bound("l.price_total_zl", ">=", f.PriceMin)
	bound("l.price_total_zl", "<=", f.PriceMax)
	bound("l.price_sqm_zl", ">=", f.PriceSqmMin)
	bound("l.price_sqm_zl", "<=", f.PriceSqmMax)

	if len(f.Rooms) > 0 {
		rooms := make([]int32, len(f.Rooms))
		for i, r := range f.Rooms {
			rooms[i] = int32(r)
		}
		conds = append(conds, "l.rooms = ANY("+a.add(rooms)+")")
	}
	if f.City != "" {
		conds = append(conds, "loc.city ILIKE "+a.add(core.LikePattern(f.City)))
	}
	if f.CityDistrict != "" {
		conds = append(conds, "loc.city_district ILIKE "+a.add(core.LikePattern(f.CityDistrict)))
	}

	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// filterSQL renders the count query and the page query of a filter.
func filterSQL(f core.ListingFilter) (count string, countArgs []any, page string, pageArgs []any) {
	var ca args
	count = "SELECT count(*) FROM listing l"
	if f.NeedsLocation() {
		count += " JOIN location loc ON loc.location_id = l.location_id"
	}
	count += filterWhere(f, &ca)

	var pa args
	page = "SELECT " + listingColumns + " FROM listing l JOIN location loc ON loc.location_id = l.location_id" +
		filterWhere(f, &pa)
	page += " ORDER BY l.listing_id LIMIT " + pa.add(f.Limit) + " OFFSET " + pa.add(f.Offset)
	return count, ca, page, pa
}

func matchLocationsSQL(q string, limit int) (string, []any) {
	var a args
	p := a.add(core.LikePattern(q))
	return `SELECT location_id, city, locality, city_district, street, full_address FROM location` +
		` WHERE city ILIKE ` + p + ` OR city_district ILIKE ` + p + ` OR locality ILIKE ` + p +
		` ORDER BY location_id LIMIT ` + a.add(limit), a
}
