package sqlite3

// Row is a materialized table row: a mapping from column name to value,
// plus any surplus record values that exceed the table's column count.
type Row struct {
	Values   map[string]any
	Unknowns []any
	RowID    int64
}

// Get returns the value stored for column name, or ok=false if the table
// has no such column.
func (r Row) Get(name string) (any, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// materializeRow zips table's declared columns against rec's values in
// order. Missing trailing values substitute the column's declared default
// (possibly nil); surplus values are retained in Unknowns. If the table has
// a single-column primary key with no corresponding record value (the
// INTEGER PRIMARY KEY / ROWID-alias case), rowid fills it. Per spec §4.5.
func materializeRow(table Table, rec Record, rowid int64) Row {
	row := Row{
		Values: make(map[string]any, len(table.Columns)),
		RowID:  rowid,
	}
	for i, col := range table.Columns {
		if i < len(rec.Values) {
			row.Values[col.Name] = rec.Values[i]
		} else {
			row.Values[col.Name] = col.Default
		}
	}
	if len(rec.Values) > len(table.Columns) {
		row.Unknowns = append(row.Unknowns, rec.Values[len(table.Columns):]...)
	}
	if table.PrimaryKey != "" {
		if v, ok := row.Values[table.PrimaryKey]; ok && v == nil {
			row.Values[table.PrimaryKey] = rowid
		}
	}
	return row
}
