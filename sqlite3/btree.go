package sqlite3

import "github.com/cockroachdb/errors"

// CellVisitor is called once per leaf cell encountered during a B-tree
// walk, in key order.
type CellVisitor func(Cell) error

// walk performs an in-order traversal of the B-tree rooted at page
// rootPage, invoking visit for every leaf cell. Per spec §4.3: for an
// interior page, each cell's left_child is visited before moving to the
// next cell, and the right-most child is visited last.
func (d *Database) walk(rootPage uint32, visit CellVisitor) error {
	p, err := d.Page(rootPage)
	if err != nil {
		return err
	}
	if p.Type.IsLeaf() {
		for _, ptr := range p.CellPointers {
			c, err := d.decodeCell(p, int(ptr))
			if err != nil {
				d.log.Warnf("sqlite3: skipping cell on page %d: %v", rootPage, err)
				continue
			}
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, ptr := range p.CellPointers {
		c, err := d.decodeCell(p, int(ptr))
		if err != nil {
			d.log.Warnf("sqlite3: skipping cell on page %d: %v", rootPage, err)
			continue
		}
		if c.LeftChild != 0 {
			if err := d.walk(c.LeftChild, visit); err != nil {
				return err
			}
		}
	}
	if p.RightChild != 0 {
		if err := d.walk(p.RightChild, visit); err != nil {
			return err
		}
	}
	return nil
}

// rowsFromRoot walks the table B-tree rooted at rootPage and invokes visit once per
// row, with default substitution and ROWID aliasing applied per spec §4.5.
func (d *Database) rowsFromRoot(rootPage uint32, table Table, visit func(Row) error) error {
	return d.walk(rootPage, func(c Cell) error {
		if !c.HasPayload() {
			return errors.Wrap(ErrNoCellData, "table cell carries no payload")
		}
		rec, err := decodeRecord(c.Payload, d.Header.TextEncoding)
		if err != nil {
			d.log.Warnf("sqlite3: skipping unparsable row in table %q: %v", table.Name, err)
			return nil
		}
		row := materializeRow(table, rec, c.RowID)
		return visit(row)
	})
}
