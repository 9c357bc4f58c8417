package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Paging bounds of the read API.
const (
	DefaultFilterLimit  = 50
	MaxFilterLimit      = 100
	DefaultSuggestLimit = 10
	MaxSuggestLimit     = 50
)

// ErrInvalidFilter wraps every ListingFilter validation failure.
var ErrInvalidFilter = errors.New("invalid filter")

// ListingFilter selects listings. Nil bounds and empty strings do not
// constrain. City and CityDistrict match as case-insensitive substrings.
type ListingFilter struct {
	PriceMin     *float64 `json:"price_min,omitempty"`
	PriceMax     *float64 `json:"price_max,omitempty"`
	PriceSqmMin  *float64 `json:"price_sqm_min,omitempty"`
	PriceSqmMax  *float64 `json:"price_sqm_max,omitempty"`
	Rooms        []int    `json:"rooms,omitempty"`
	City         string   `json:"city,omitempty"`
	CityDistrict string   `json:"city_district,omitempty"`

	Limit  int `json:"-"`
	Offset int `json:"-"`
}

// Normalize applies the default limit and checks every bound, reporting
// all violations at once.
func (f *ListingFilter) Normalize() error {
	if f.Limit == 0 {
		f.Limit = DefaultFilterLimit
	}
	f.City = strings.TrimSpace(f.City)
	f.CityDistrict = strings.TrimSpace(f.CityDistrict)

	var errs []string
	if f.Limit < 1 || f.Limit > MaxFilterLimit {
		errs = append(errs, fmt.Sprintf("limit must be between 1 and %d", MaxFilterLimit))
	}
	if f.Offset < 0 {
		errs = append(errs, "offset must be >= 0")
	}
	bounds := []struct {
		name string
		v    *float64
	}{
		{"price_min", f.PriceMin},
		{"price_max", f.PriceMax},
		{"price_sqm_min", f.PriceSqmMin},
		{"price_sqm_max", f.PriceSqmMax},
	}
	for _, b := range bounds {
		if b.v != nil && *b.v < 0 {
			errs = append(errs, b.name+" must be >= 0")
		}
	}
	if len(f.City) > 255 || len(f.CityDistrict) > 255 {
		errs = append(errs, "city and city_district are limited to 255 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidFilter, strings.Join(errs, "; "))
	}
	return nil
}

// NeedsLocation reports whether the filter constrains location columns.
func (f *ListingFilter) NeedsLocation() bool {
	return f.City != "" || f.CityDistrict != ""
}

// LocationView is a location as returned by the read API.
type LocationView struct {
	LocationID   int64   `json:"location_id"`
	City         *string `json:"city"`
	Locality     *string `json:"locality"`
	CityDistrict *string `json:"city_district"`
	Street       *string `json:"street"`
	FullAddress  *string `json:"full_address"`
}

// ListingView is a listing with its location.
type ListingView struct {
	ListingID  int64        `json:"listing_id"`
	Rooms      *int32       `json:"rooms"`
	Area       *float64     `json:"area"`
	PriceTotal *float64     `json:"price_total_zl"`
	PriceSqm   *float64     `json:"price_sqm_zl"`
	Location   LocationView `json:"location"`
}

// ListingPage is one page of a filter result. Count is the total number of
// matches, not the page length.
type ListingPage struct {
	Count    int           `json:"count"`
	Listings []ListingView `json:"listings"`
}

// LocationSuggestion is one autocomplete entry.
type LocationSuggestion struct {
	LocationID   int64   `json:"location_id"`
	City         *string `json:"city"`
	CityDistrict *string `json:"city_district"`
	Locality     *string `json:"locality"`
	DisplayName  string  `json:"display_name"`
}

// ListingReader is the read side of a store.
type ListingReader interface {
	Ping(ctx context.Context) error
	FilterListings(ctx context.Context, f ListingFilter) (*ListingPage, error)

	// MatchLocations returns up to limit locations whose city, district or
	// locality contains q, case-insensitively.
	MatchLocations(ctx context.Context, q string, limit int) ([]LocationView, error)
}

// DisplayName joins the non-empty city, district and locality.
func (l LocationView) DisplayName() string {
	var parts []string
	for _, p := range []*string{l.City, l.CityDistrict, l.Locality} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	if len(parts) == 0 {
		return "Unknown location"
	}
	return strings.Join(parts, ", ")
}

// BuildSuggestions turns matched locations into autocomplete entries, keeping
// the first location of each display name.
func BuildSuggestions(locs []LocationView) []LocationSuggestion {
	seen := make(map[string]bool, len(locs))
	out := make([]LocationSuggestion, 0, len(locs))
	for _, l := range locs {
		name := l.DisplayName()
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, LocationSuggestion{
			LocationID:   l.LocationID,
			City:         l.City,
			CityDistrict: l.CityDistrict,
			Locality:     l.Locality,
			DisplayName:  name,
		})
	}
	return out
}

// SuggestLocations clamps limit to the API bounds, matches q and removes
// duplicate display names.
func SuggestLocations(ctx context.Context, r ListingReader, q string, limit int) ([]LocationSuggestion, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: q is required", ErrInvalidFilter)
	}
	if limit == 0 {
		limit = DefaultSuggestLimit
	}
	if limit < 1 || limit > MaxSuggestLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidFilter, MaxSuggestLimit)
	}

	locs, err := r.MatchLocations(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("match locations: %w", err)
	}
	return BuildSuggestions(locs), nil
}

// LikePattern builds a contains-pattern for LIKE/ILIKE, escaping the
// wildcards with a backslash.
func LikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
