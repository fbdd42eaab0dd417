package storage

// Cursor is a read/write position within a BTree: a leaf page and a
// cell index into it. It does not cache node contents across calls —
// every method re-fetches the page from the pager, which is cheap
// since the pager itself caches materialized pages.
type Cursor struct {
	tree *BTree
	page uint32
	cell uint32
}

// Valid reports whether the cursor addresses an existing row. A
// cursor that has walked off the right edge of the tree is
// represented by the noPage sentinel and reports invalid without
// touching the pager.
func (c *Cursor) Valid() (bool, error) {
	if c.page == noPage {
		return false, nil
	}
	page, err := c.tree.pager.GetPage(c.page)
	if err != nil {
		return false, err
	}
	return c.cell < leafNumCells(page.Data[:]), nil
}

// Key returns the row key at the cursor. Call only when Valid.
func (c *Cursor) Key() (uint32, error) {
	page, err := c.tree.pager.GetPage(c.page)
	if err != nil {
		return 0, err
	}
	return leafKey(page.Data[:], c.cell, c.tree.meta.RowSize), nil
}

// Value decodes the row at the cursor. Call only when Valid.
func (c *Cursor) Value() (Row, error) {
	page, err := c.tree.pager.GetPage(c.page)
	if err != nil {
		return nil, err
	}
	raw := leafValue(page.Data[:], c.cell, c.tree.meta.RowSize)
	return DeserializeRow(c.tree.meta, raw)
}

// Advance moves the cursor to the next row in key order, crossing into
// the right sibling leaf when the current one is exhausted (spec §9
// open question 3).
func (c *Cursor) Advance() error {
	page, err := c.tree.pager.GetPage(c.page)
	if err != nil {
		return err
	}
	data := page.Data[:]

	c.cell++
	if c.cell < leafNumCells(data) {
		return nil
	}

	sibling := leafRightSibling(data)
	c.page = sibling
	c.cell = 0
	return nil
}
