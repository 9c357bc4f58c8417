package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/JonMunkholm/listings/internal/core"
	"github.com/JonMunkholm/listings/internal/logging"
)

// maxFilterBody caps the POST /listings/filter body.
const maxFilterBody = 64 << 10

// healthTimeout bounds the database check of /health.
const healthTimeout = 5 * time.Second

var errBodyTooLarge = errors.New("request body too large")

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
}

// LocationAutocompleteResponse is the body of /listings/autocomplete/location.
type LocationAutocompleteResponse struct {
	Locations []core.LocationSuggestion `json:"locations"`
}

// handleHealth checks the database with SELECT 1. An unreachable database
// answers 503 so load balancers take the instance out of rotation.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Database:  "connected",
	}
	status := http.StatusOK
	if err := s.reader.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Warn("health check failed", "error", err)
		resp.Status = "unhealthy"
		resp.Database = "error: " + err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, resp)
}

// handleFilterGet reads the filter from query parameters. Rooms may repeat:
// rooms=2&rooms=3.
func (s *Server) handleFilterGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f core.ListingFilter
	var err error
	if f.PriceMin, err = floatParam(q, "price_min"); err != nil {
		s.respondError(w, r, err)
		return
	}
	if f.PriceMax, err = floatParam(q, "price_max"); err != nil {
		s.respondError(w, r, err)
		return
	}
	if f.PriceSqmMin, err = floatParam(q, "price_sqm_min"); err != nil {
		s.respondError(w, r, err)
		return
	}
	if f.PriceSqmMax, err = floatParam(q, "price_sqm_max"); err != nil {
		s.respondError(w, r, err)
		return
	}
	for _, v := range q["rooms"] {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("%w: rooms must be integers", core.ErrInvalidFilter))
			return
		}
		f.Rooms = append(f.Rooms, n)
	}
	f.City = q.Get("city")
	f.CityDistrict = q.Get("city_district")

	s.filter(w, r, f)
}

// handleFilterPost reads the filter from a JSON body; paging stays in the
// query string. An empty body is an empty filter.
func (s *Server) handleFilterPost(w http.ResponseWriter, r *http.Request) {
	var f core.ListingFilter

	body := http.MaxBytesReader(w, r.Body, maxFilterBody)
	if err := json.NewDecoder(body).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, errBodyTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: malformed JSON body: %v", core.ErrInvalidFilter, err))
		return
	}

	s.filter(w, r, f)
}

func (s *Server) filter(w http.ResponseWriter, r *http.Request, f core.ListingFilter) {
	q := r.URL.Query()

	var err error
	if f.Limit, err = intParam(q, "limit", core.DefaultFilterLimit); err != nil {
		s.respondError(w, r, err)
		return
	}
	if f.Offset, err = intParam(q, "offset", 0); err != nil {
		s.respondError(w, r, err)
		return
	}
	if f.Limit < 1 {
		s.respondError(w, r, fmt.Errorf("%w: limit must be between 1 and %d", core.ErrInvalidFilter, core.MaxFilterLimit))
		return
	}
	if err := f.Normalize(); err != nil {
		s.respondError(w, r, err)
		return
	}

	logger := logging.WithFields(r.Context(), "limit", f.Limit, "offset", f.Offset)

	page, err := s.reader.FilterListings(r.Context(), f)
	if err != nil {
		logger.Warn("filter listings failed", "error", err)
		s.respondError(w, r, err)
		return
	}
	logger.Debug("listings filtered",
		"count", page.Count,
		"returned", len(page.Listings),
		"joins_location", f.NeedsLocation(),
	)
	writeJSON(w, r, http.StatusOK, page)
}

func (s *Server) handleAutocompleteLocation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := intParam(q, "limit", core.DefaultSuggestLimit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if limit < 1 {
		s.respondError(w, r, fmt.Errorf("%w: limit must be between 1 and %d", core.ErrInvalidFilter, core.MaxSuggestLimit))
		return
	}

	suggestions, err := core.SuggestLocations(r.Context(), s.reader, q.Get("q"), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, LocationAutocompleteResponse{Locations: suggestions})
}

// floatParam parses an optional non-empty number.
func floatParam(q url.Values, name string) (*float64, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %s must be a number", core.ErrInvalidFilter, name)
	}
	return &f, nil
}

// intParam parses an optional integer, returning def when it is absent.
func intParam(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", core.ErrInvalidFilter, name)
	}
	return n, nil
}
