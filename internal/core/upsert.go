package core

import (
	"context"
	"errors"
	"fmt"
)

// Listing table identity.
const (
	ListingTable    = "listing"
	ListingIDColumn = "listing_id"
	ListingURL      = "url"
)

// ErrNoURL is returned by UpsertListing for records without a url.
var ErrNoURL = errors.New("listing has no url")

// UpsertListing stores rec under its url. An existing listing gets every
// mutable column replaced, nulls included; otherwise a new row is inserted.
func UpsertListing(ctx context.Context, sess Session, fk ForeignKeys, rec *Record) (UpsertOutcome, error) {
	if !rec.URL.Valid {
		return 0, ErrNoURL
	}
	url := Column{Name: ListingURL, Value: rec.URL}

	id, found, err := sess.FindID(ctx, ListingTable, ListingIDColumn, []Column{url})
	if err != nil {
		return 0, fmt.Errorf("find listing: %w", err)
	}

	cols := rec.ListingColumns(fk)
	if found {
		if err := sess.Update(ctx, ListingTable, ListingIDColumn, id, cols); err != nil {
			return 0, fmt.Errorf("update listing %d: %w", id, err)
		}
		return ListingUpdated, nil
	}

	if _, err := sess.Insert(ctx, ListingTable, ListingIDColumn, append(cols, url)); err != nil {
		return 0, fmt.Errorf("insert listing: %w", err)
	}
	return ListingCreated, nil
}

// ResolveReferences resolves the four reference entities of rec in order:
// location, building, owner, features.
func ResolveReferences(ctx context.Context, sess Session, rec *Record, location MatchPolicy) (ForeignKeys, error) {
	var fk ForeignKeys
	var err error

	locKind := LocationKind
	locKind.Policy = location

	if fk.LocationID, err = Resolve(ctx, sess, locKind, rec.LocationColumns()); err != nil {
		return fk, err
	}
	if fk.BuildingID, err = Resolve(ctx, sess, BuildingKind, rec.BuildingColumns()); err != nil {
		return fk, err
	}
	if fk.OwnerID, err = Resolve(ctx, sess, OwnerKind, rec.OwnerColumns()); err != nil {
		return fk, err
	}
	if fk.FeaturesID, err = Resolve(ctx, sess, FeaturesKind, rec.FeaturesColumns()); err != nil {
		return fk, err
	}
	return fk, nil
}
