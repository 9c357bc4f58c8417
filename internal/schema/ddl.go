package schema

import (
	"fmt"
	"strings"
)

// Dialect selects the SQL flavor of the rendered DDL.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// CreateStatements returns idempotent CREATE TABLE and CREATE INDEX
// statements for every table.
func CreateStatements(d Dialect) []string {
	var stmts []string
	for _, t := range Tables {
		stmts = append(stmts, createTable(d, t))
		for _, col := range t.Unique {
			stmts = append(stmts, fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s_%s_key ON %s (%s)",
				t.Name, col, t.Name, col))
		}
		for _, c := range t.Columns {
			if c.References != "" {
				stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_%s_idx ON %s (%s)",
					t.Name, c.Name, t.Name, c.Name))
			}
		}
	}
	return stmts
}

func createTable(d Dialect, t Table) string {
	defs := []string{idColumn(d, t.IDColumn)}
	for _, c := range t.Columns {
		def := c.Name + " " + columnType(d, c)
		if c.NotNull {
			def += " NOT NULL"
		}
		if c.References != "" {
			if parent, ok := Lookup(c.References); ok {
				def += fmt.Sprintf(" REFERENCES %s (%s)", parent.Name, parent.IDColumn)
			}
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.Name, strings.Join(defs, ",\n\t"))
}

// idColumn renders the generated key. SQLite's AUTOINCREMENT keeps ids of
// deleted rows from being reused, which matches a Postgres sequence.
func idColumn(d Dialect, name string) string {
	if d == SQLite {
		return name + " INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return name + " BIGSERIAL PRIMARY KEY"
}

func columnType(d Dialect, c ColumnDef) string {
	switch c.Type {
	case TypeVarchar:
		return fmt.Sprintf("VARCHAR(%d)", c.Length)
	case TypeSmallInt:
		return "SMALLINT"
	case TypeInteger:
		if d == Postgres && c.References != "" {
			return "BIGINT"
		}
		return "INTEGER"
	case TypeNumeric:
		return fmt.Sprintf("NUMERIC(%d,%d)", c.Precision, c.Scale)
	case TypeBool:
		return "BOOLEAN"
	case TypeDate:
		return "DATE"
	default:
		return "TEXT"
	}
}
