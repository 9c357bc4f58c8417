package core

import (
	"context"
	"fmt"
	"strings"
)

// MatchPolicy decides which natural-key columns constrain the lookup.
type MatchPolicy int

const (
	// MatchPresent compares only the key columns that are non-null. A row
	// with no non-null key column never matches and always creates.
	MatchPresent MatchPolicy = iota

	// MatchExact compares every key column; null matches null.
	MatchExact
)

// ParseMatchPolicy maps "present" or "exact" to a MatchPolicy.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present", "":
		return MatchPresent, nil
	case "exact":
		return MatchExact, nil
	default:
		return MatchPresent, fmt.Errorf("unknown match policy %q (want present or exact)", s)
	}
}

func (p MatchPolicy) String() string {
	if p == MatchExact {
		return "exact"
	}
	return "present"
}

// EntityKind describes a deduplicated reference table.
type EntityKind struct {
	Table    string
	IDColumn string
	Key      []string // natural key columns
	Policy   MatchPolicy
}

// Reference entity kinds. Location keeps the loose present-fields match of
// the legacy importer unless configured otherwise.
var (
	LocationKind = EntityKind{
		Table:    "location",
		IDColumn: "location_id",
		Key:      []string{"locality", "street", "full_address"},
		Policy:   MatchPresent,
	}
	BuildingKind = EntityKind{
		Table:    "building",
		IDColumn: "building_id",
		Key:      []string{"year_built", "building_type", "floor"},
		Policy:   MatchExact,
	}
	OwnerKind = EntityKind{
		Table:    "owner",
		IDColumn: "owner_id",
		Key:      []string{"owner_type"},
		Policy:   MatchExact,
	}
	FeaturesKind = EntityKind{
		Table:    "features",
		IDColumn: "features_id",
		Key:      []string{"has_basement", "has_parking", "kitchen_type", "window_type", "ownership_type", "equipment"},
		Policy:   MatchExact,
	}
)

// keyColumns projects fields onto the kind's natural key under its policy.
func (k EntityKind) keyColumns(fields []Column) ([]Column, error) {
	byName := make(map[string]Column, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	key := make([]Column, 0, len(k.Key))
	for _, name := range k.Key {
		col, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%s: key column %q not in fields", k.Table, name)
		}
		if k.Policy == MatchPresent && col.IsNull() {
			continue
		}
		key = append(key, col)
	}
	return key, nil
}

// Resolve returns the id of the row of kind whose natural key matches
// fields, inserting fields as a new row when none does. Existing rows are
// returned untouched.
func Resolve(ctx context.Context, sess Session, kind EntityKind, fields []Column) (int64, error) {
	key, err := kind.keyColumns(fields)
	if err != nil {
		return 0, err
	}

	if len(key) > 0 {
		id, found, err := sess.FindID(ctx, kind.Table, kind.IDColumn, key)
		if err != nil {
			return 0, fmt.Errorf("find %s: %w", kind.Table, err)
		}
		if found {
			return id, nil
		}
	}

	id, err := sess.Insert(ctx, kind.Table, kind.IDColumn, fields)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", kind.Table, err)
	}
	return id, nil
}
