package sqlite

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/JonMunkholm/listings/internal/core"
)

// likeEscape is the escape character core.LikePattern uses. SQLite's LIKE is
// case-insensitive for ASCII only.
const likeEscape = `\`

type locationRow struct {
	LocationID   int64   `bun:"location_id"`
	City         *string `bun:"city"`
	Locality     *string `bun:"locality"`
	CityDistrict *string `bun:"city_district"`
	Street       *string `bun:"street"`
	FullAddress  *string `bun:"full_address"`
}

func (r locationRow) view() core.LocationView {
	return core.LocationView{
		LocationID:   r.LocationID,
		City:         r.City,
		Locality:     r.Locality,
		CityDistrict: r.CityDistrict,
		Street:       r.Street,
		FullAddress:  r.FullAddress,
	}
}

type listingRow struct {
	ListingID  int64    `bun:"listing_id"`
	Rooms      *int32   `bun:"rooms"`
	Area       *float64 `bun:"area"`
	PriceTotal *float64 `bun:"price_total_zl"`
	PriceSqm   *float64 `bun:"price_sqm_zl"`

	LocationID   int64   `bun:"location_id"`
	City         *string `bun:"city"`
	Locality     *string `bun:"locality"`
	CityDistrict *string `bun:"city_district"`
	Street       *string `bun:"street"`
	FullAddress  *string `bun:"full_address"`
}

func applyFilter(q *bun.SelectQuery, f core.ListingFilter) *bun.SelectQuery {
	if f.PriceMin != nil {
		q = q.Where("l.price_total_zl >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("l.price_total_zl <= ?", *f.PriceMax)
	}
	if f.PriceSqmMin != nil {
		q = q.Where("l.price_sqm_zl >= ?", *f.PriceSqmMin)
	}
	if f.PriceSqmMax != nil {
		q = q.Where("l.price_sqm_zl <= ?", *f.PriceSqmMax)
	}
	if len(f.Rooms) > 0 {
		q = q.Where("l.rooms IN (?)", bun.In(f.Rooms))
	}
	if f.City != "" {
		q = q.Where("loc.city LIKE ? ESCAPE ?", core.LikePattern(f.City), likeEscape)
	}
	if f.CityDistrict != "" {
		q = q.Where("loc.city_district LIKE ? ESCAPE ?", core.LikePattern(f.CityDistrict), likeEscape)
	}
	return q
}

// FilterListings runs the count and the page query of f. f must already be
// normalized.
func (s *Store) FilterListings(ctx context.Context, f core.ListingFilter) (*core.ListingPage, error) {
	page := &core.ListingPage{Listings: []core.ListingView{}}

	count := s.db.NewSelect().TableExpr("listing AS l").ColumnExpr("count(*)")
	if f.NeedsLocation() {
		count = count.Join("JOIN location AS loc ON loc.location_id = l.location_id")
	}
	if err := applyFilter(count, f).Scan(ctx, &page.Count); err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	var rows []listingRow
	q := s.db.NewSelect().
		TableExpr("listing AS l").
		Join("JOIN location AS loc ON loc.location_id = l.location_id").
		ColumnExpr("l.listing_id, l.rooms").
		ColumnExpr("CAST(l.area AS REAL) AS area").
		ColumnExpr("CAST(l.price_total_zl AS REAL) AS price_total_zl").
		ColumnExpr("CAST(l.price_sqm_zl AS REAL) AS price_sqm_zl").
		ColumnExpr("loc.location_id, loc.city, loc.locality, loc.city_district, loc.street, loc.full_address")
	err := applyFilter(q, f).
		OrderExpr("l.listing_id ASC").
		Limit(f.Limit).
		Offset(f.Offset).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}

	for _, r := range rows {
		page.Listings = append(page.Listings, core.ListingView{
			ListingID:  r.ListingID,
			Rooms:      r.Rooms,
			Area:       r.Area,
			PriceTotal: r.PriceTotal,
			PriceSqm:   r.PriceSqm,
			Location: core.LocationView{
				LocationID:   r.LocationID,
				City:         r.City,
				Locality:     r.Locality,
				CityDistrict: r.CityDistrict,
				Street:       r.Street,
				FullAddress:  r.FullAddress,
			},
		})
	}
	return page, nil
}

func (s *Store) MatchLocations(ctx context.Context, q string, limit int) ([]core.LocationView, error) {
	p := core.LikePattern(q)

	var rows []locationRow
	err := s.db.NewSelect().
		TableExpr("location").
		ColumnExpr("location_id, city, locality, city_district, street, full_address").
		Where("city LIKE ? ESCAPE ?", p, likeEscape).
		WhereOr("city_district LIKE ? ESCAPE ?", p, likeEscape).
		WhereOr("locality LIKE ? ESCAPE ?", p, likeEscape).
		OrderExpr("location_id ASC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	out := make([]core.LocationView, len(rows))
	for i, r := range rows {
		out[i] = r.view()
	}
	return out, nil
}
