package sqlite3

import (
	"github.com/cockroachdb/errors"
	"github.com/forensicdb/forensicdb/internal/sqlparse"
)

// Column is one column of a Table: its declared name and the literal value
// (possibly nil) substituted when a row is missing a value for it.
type Column struct {
	Name    string
	Default any
}

// Table is one entry from sqlite_master with type="table", enriched with
// its parsed schema.
type Table struct {
	Name       string
	RootPage   uint32
	SQL        string
	PrimaryKey string
	Columns    []Column
}

// Index is one entry from sqlite_master with type="index".
type Index struct {
	Name      string
	TableName string
	RootPage  uint32
	SQL       string
}

// masterColumns are sqlite_master's own fixed columns: type, name,
// tbl_name, rootpage, sql. sqlite_master itself carries no CREATE TABLE
// statement to parse (it's a hardcoded root-page-1 schema), so its rows are
// read positionally rather than through materializeRow.
var masterColumns = []string{"type", "name", "tbl_name", "rootpage", "sql"}

// schemaRows walks the sqlite_master B-tree (rooted at page 1, spec §4.3)
// and yields each row's five raw values in master-column order.
func (d *Database) schemaRows(visit func(values []any) error) error {
	return d.walk(1, func(c Cell) error {
		if !c.HasPayload() {
			return nil
		}
		rec, err := decodeRecord(c.Payload, d.Header.TextEncoding)
		if err != nil {
			d.log.Warnf("sqlite3: skipping unparsable sqlite_master row: %v", err)
			return nil
		}
		return visit(rec.Values)
	})
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func uint32Value(v any) uint32 {
	switch n := v.(type) {
	case int64:
		return uint32(n)
	default:
		return 0
	}
}

// Tables returns every sqlite_master row with type="table", each enriched
// with its parsed primary key, column list and defaults.
func (d *Database) Tables() ([]Table, error) {
	var tables []Table
	err := d.schemaRows(func(values []any) error {
		if len(values) < 5 || stringValue(values[0]) != "table" {
			return nil
		}
		sql := stringValue(values[4])
		t := Table{
			Name:     stringValue(values[1]),
			RootPage: uint32Value(values[3]),
			SQL:      sql,
		}
		if sql != "" {
			sch, err := sqlparse.Parse(sql)
			if err != nil {
				d.log.Warnf("sqlite3: unparsable schema for table %q: %v", t.Name, err)
			} else {
				t.PrimaryKey = sch.PrimaryKey
				for _, c := range sch.Columns {
					t.Columns = append(t.Columns, Column{Name: c.Name, Default: c.Default})
				}
			}
		}
		tables = append(tables, t)
		return nil
	})
	return tables, err
}

// Indices returns every sqlite_master row with type="index".
func (d *Database) Indices() ([]Index, error) {
	var indices []Index
	err := d.schemaRows(func(values []any) error {
		if len(values) < 5 || stringValue(values[0]) != "index" {
			return nil
		}
		indices = append(indices, Index{
			Name:      stringValue(values[1]),
			TableName: stringValue(values[2]),
			RootPage:  uint32Value(values[3]),
			SQL:       stringValue(values[4]),
		})
		return nil
	})
	return indices, err
}

// Table looks up a single table by name.
func (d *Database) Table(name string) (Table, error) {
	tables, err := d.Tables()
	if err != nil {
		return Table{}, err
	}
	for _, t := range tables {
		if t.Name == name {
			return t, nil
		}
	}
	return Table{}, errors.Newf("sqlite3: no such table %q", name)
}

// Rows walks table's B-tree and invokes visit once per materialized row, in
// cell-pointer (key) order.
func (d *Database) Rows(table Table, visit func(Row) error) error {
	return d.rowsFromRoot(table.RootPage, table, visit)
}

// AllRows collects every row of table into a slice. Prefer Rows for large
// tables; this is a convenience for tests and small tables.
func (d *Database) AllRows(table Table) ([]Row, error) {
	var rows []Row
	err := d.Rows(table, func(r Row) error {
		rows = append(rows, r)
		return nil
	})
	return rows, err
}
