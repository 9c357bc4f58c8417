package schema

import (
	"strings"
	"testing"
)

func TestCreateStatements(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		contains []string
	}{
		{
			name:    "postgres",
			dialect: Postgres,
			contains: []string{
				"CREATE TABLE IF NOT EXISTS location (\n\tlocation_id BIGSERIAL PRIMARY KEY",
				"latitude NUMERIC(9,6)",
				"location_id BIGINT NOT NULL REFERENCES location (location_id)",
				"CREATE UNIQUE INDEX IF NOT EXISTS listing_url_key ON listing (url)",
			},
		},
		{
			name:    "sqlite",
			dialect: SQLite,
			contains: []string{
				"location_id INTEGER PRIMARY KEY AUTOINCREMENT",
				"owner_id INTEGER NOT NULL REFERENCES owner (owner_id)",
				"has_basement BOOLEAN",
				"date_posted DATE",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := strings.Join(CreateStatements(tt.dialect), ";\n")
			for _, want := range tt.contains {
				if !strings.Contains(all, want) {
					t.Errorf("DDL missing %q", want)
				}
			}
		})
	}
}

func TestCreateStatementsOrder(t *testing.T) {
	stmts := CreateStatements(Postgres)
	pos := func(table string) int {
		for i, s := range stmts {
			if strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS "+table+" ") {
				return i
			}
		}
		t.Fatalf("no CREATE TABLE for %s", table)
		return -1
	}

	listing := pos("listing")
	for _, parent := range []string{"location", "building", "owner", "features"} {
		if pos(parent) > listing {
			t.Errorf("%s must be created before listing", parent)
		}
	}
}

func TestLookup(t *testing.T) {
	tbl, ok := Lookup("owner")
	if !ok || tbl.IDColumn != "owner_id" {
		t.Fatalf("Lookup(owner) = %+v, %v", tbl, ok)
	}
	if _, ok := Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}
