package storage

import (
	"github.com/pkg/errors"

	"cqlite/pager"
)

// RootPageNum is the schema tree's root page number. Unlike a split's
// two new leaf/internal pages, the root's own page number never
// changes once assigned (spec §3: Table.root_page_num "always 0 in
// the current design: the schema tree occupies page 0"; spec §6:
// "Page 0 is the root of the schema tree"); a split that reaches the
// root instead relocates the root's *current* bytes into a freshly
// allocated left child and rewrites the root page in place as the new
// internal node (see promoteRoot, grounded on spec §4.D's literal
// create_new_root).
const RootPageNum = uint32(0)

// BTree is a single table's B+-tree: a pager, a row layout, and the
// root page. Every mutating or searching operation starts by loading
// the root page and walking down from there — there is no separate
// in-memory tree structure to keep in sync with disk.
type BTree struct {
	pager    *pager.Pager
	meta     TableMeta
	rootPage uint32
}

// Open returns the BTree backed by p, laid out per meta, rooted at
// RootPageNum. If p is a brand-new (zero-page) file, RootPageNum is
// allocated and initialized as an empty leaf; otherwise the page is
// read back as-is — its root page number is a fixed invariant of the
// file format, never stored or looked up separately.
func Open(p *pager.Pager, meta TableMeta) (*BTree, error) {
	if p.NumPages == 0 {
		rootPageNum, rootPage, err := p.AllocatePage()
		if err != nil {
			return nil, errors.Wrap(err, "storage: allocate root leaf")
		}
		if rootPageNum != RootPageNum {
			return nil, errors.Errorf("storage: fresh file's first page is %d, want %d", rootPageNum, RootPageNum)
		}
		initializeLeaf(rootPage.Data[:])
		setRoot(rootPage.Data[:], true)
		return &BTree{pager: p, meta: meta, rootPage: RootPageNum}, nil
	}

	return &BTree{pager: p, meta: meta, rootPage: RootPageNum}, nil
}

// AllocateObjectRoot hands out a fresh page initialized as an empty
// leaf, for use as a new schema object's own B+-tree root (spec §4.F
// step 3: a CREATE/INSERT of a not-yet-seen table or index lazily
// allocates the page that will become that object's root).
func (t *BTree) AllocateObjectRoot() (uint32, error) {
	pageNum, page, err := t.pager.AllocatePage()
	if err != nil {
		return 0, err
	}
	initializeLeaf(page.Data[:])
	setRoot(page.Data[:], true)
	return pageNum, nil
}

// leafForKey descends from the root to the leaf that key belongs in
// (or would belong in, if absent), following spec §9 open question 1:
// internal nodes are searched recursively rather than aborting past
// depth one.
func (t *BTree) leafForKey(key uint32) (pageNum uint32, data []byte, err error) {
	pageNum = t.rootPage
	for {
		page, err := t.pager.GetPage(pageNum)
		if err != nil {
			return 0, nil, err
		}
		if getNodeType(page.Data[:]) == nodeLeaf {
			return pageNum, page.Data[:], nil
		}
		idx := internalFindChildIndex(page.Data[:], key)
		pageNum = childAtIndex(page.Data[:], idx)
	}
}

// Find returns a Cursor positioned at key if present, or at the first
// key greater than it otherwise. Cursor.Valid reports whether the
// cursor is at a row at all; compare Cursor.Key with key to tell an
// exact match from a greater key.
func (t *BTree) Find(key uint32) (*Cursor, error) {
	pageNum, data, err := t.leafForKey(key)
	if err != nil {
		return nil, err
	}
	n := leafNumCells(data)
	lo, hi := uint32(0), n
	for lo != hi {
		mid := lo + (hi-lo)/2
		if leafKey(data, mid, t.meta.RowSize) >= key {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return &Cursor{tree: t, page: pageNum, cell: lo}, nil
}

// Start returns a Cursor positioned at the tree's first row, if any.
func (t *BTree) Start() (*Cursor, error) {
	c, err := t.Find(0)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Insert writes key/row into the tree, overwriting any existing row
// stored under key. A leaf that overflows is split, and the split is
// propagated up through ancestors, creating a new root if the split
// reaches the top (spec §9 open question 2: a correct multi-level
// propagation, not a root-only special case).
func (t *BTree) Insert(key uint32, row Row) error {
	pageNum, data, err := t.leafForKey(key)
	if err != nil {
		return err
	}

	buf := make([]byte, t.meta.RowSize)
	if err := SerializeRow(t.meta, row, buf); err != nil {
		return err
	}

	n := leafNumCells(data)
	idx := uint32(0)
	for idx < n && leafKey(data, idx, t.meta.RowSize) < key {
		idx++
	}
	if idx < n && leafKey(data, idx, t.meta.RowSize) == key {
		copy(leafValue(data, idx, t.meta.RowSize), buf)
		return nil
	}

	if n < leafMaxCells(t.meta.RowSize) {
		insertLeafCell(data, idx, n, key, buf, t.meta.RowSize)
		return nil
	}

	return t.splitLeafAndInsert(pageNum, data, idx, key, buf)
}

// insertLeafCell shifts cells [idx, n) right by one slot and writes
// key/value into the opened slot, then bumps num_cells.
func insertLeafCell(data []byte, idx, n uint32, key uint32, value []byte, rowSize uint32) {
	for i := n; i > idx; i-- {
		copy(leafCell(data, i, rowSize), leafCell(data, i-1, rowSize))
	}
	setLeafKey(data, idx, rowSize, key)
	copy(leafValue(data, idx, rowSize), value)
	setLeafNumCells(data, n+1)
}

// splitLeafAndInsert splits a full leaf into two, inserting key/value
// on whichever side it belongs, links the new right sibling into the
// leaf chain, and propagates the split's separator key up the tree.
func (t *BTree) splitLeafAndInsert(oldPageNum uint32, oldData []byte, idx, key uint32, value []byte) error {
	rowSize := t.meta.RowSize
	oldMax := leafMaxCells(rowSize)

	all := make([]struct {
		key   uint32
		value []byte
	}, 0, oldMax+1)
	for i := uint32(0); i < oldMax; i++ {
		if i == idx {
			all = append(all, struct {
				key   uint32
				value []byte
			}{key, value})
		}
		all = append(all, struct {
			key   uint32
			value []byte
		}{leafKey(oldData, i, rowSize), append([]byte(nil), leafValue(oldData, i, rowSize)...)})
	}
	if idx == oldMax {
		all = append(all, struct {
			key   uint32
			value []byte
		}{key, value})
	}

	leftCount, rightCount := leafSplitCounts(rowSize)

	newPageNum, newPage, err := t.pager.AllocatePage()
	if err != nil {
		return errors.Wrap(err, "storage: allocate split sibling")
	}
	newData := newPage.Data[:]
	initializeLeaf(newData)
	setLeafRightSibling(newData, leafRightSibling(oldData))
	setLeafRightSibling(oldData, newPageNum)

	oldWasRoot := isRoot(oldData)
	setRoot(oldData, false)

	setLeafNumCells(oldData, 0)
	for i := uint32(0); i < leftCount; i++ {
		insertLeafCell(oldData, i, i, all[i].key, all[i].value, rowSize)
	}
	for i := uint32(0); i < rightCount; i++ {
		insertLeafCell(newData, i, i, all[leftCount+i].key, all[leftCount+i].value, rowSize)
	}

	splitKey := leafKey(oldData, leftCount-1, rowSize)

	if oldWasRoot {
		setRoot(oldData, true)
		return t.promoteRoot(newPageNum)
	}

	parentPage := parentPointer(oldData)
	setParentPointer(newData, parentPage)
	return t.insertIntoParent(parentPage, oldPageNum, newPageNum, splitKey)
}

// promoteRoot relocates the root page's current bytes into a freshly
// allocated left-child page and rewrites the root page itself (whose
// number never changes, per RootPageNum) as the new internal root
// covering that left child and rightPageNum — spec §4.D's literal
// create_new_root: "Allocate a fresh left-child page; memcpy the
// current root's bytes into it and clear its is_root flag. Re-initialize
// the root page as an internal node... key(0) = get_node_max_key(left_child)."
// Called when a leaf or internal split reaches the root. When the left
// child is an internal node, key(0) is the max key of its whole subtree
// (the last key of its rightmost leaf), not its own last separator.
func (t *BTree) promoteRoot(rightPageNum uint32) error {
	rootPage, err := t.pager.GetPage(t.rootPage)
	if err != nil {
		return err
	}
	oldData := rootPage.Data[:]

	leftPageNum, leftPage, err := t.pager.AllocatePage()
	if err != nil {
		return errors.Wrap(err, "storage: allocate promoted left child")
	}
	leftData := leftPage.Data[:]
	copy(leftData, oldData)
	setRoot(leftData, false)
	setParentPointer(leftData, t.rootPage)

	// oldData's children (if any) were reparented to t.rootPage by the
	// split that preceded this call; now that their bytes live at
	// leftPageNum instead, re-point them there.
	if getNodeType(leftData) == nodeInternal {
		n := internalNumKeys(leftData)
		for i := uint32(0); i < n; i++ {
			reparent(t.pager, internalChild(leftData, i), leftPageNum)
		}
		reparent(t.pager, internalRightChild(leftData), leftPageNum)
	}

	// The separator is the largest key in the left subtree: for an
	// internal left child that is the last key of its rightmost leaf,
	// not the node's own last separator.
	maxData := leftData
	for getNodeType(maxData) == nodeInternal {
		pg, err := t.pager.GetPage(internalRightChild(maxData))
		if err != nil {
			return err
		}
		maxData = pg.Data[:]
	}
	splitKey := getNodeMaxKey(maxData, t.meta.RowSize)

	initializeInternal(oldData)
	setRoot(oldData, true)
	setInternalNumKeys(oldData, 1)
	setInternalChild(oldData, 0, leftPageNum)
	setInternalKey(oldData, 0, splitKey)
	setInternalRightChild(oldData, rightPageNum)

	rightPage, err := t.pager.GetPage(rightPageNum)
	if err != nil {
		return err
	}
	setParentPointer(rightPage.Data[:], t.rootPage)

	return nil
}

// insertIntoParent records that leftChild (already a child of
// parentPage) split off a new sibling rightChild at splitKey: the
// existing cell pointing at leftChild keeps leftChild but its key
// becomes splitKey, and a fresh cell (rightChild, oldKey) is inserted
// immediately after it, where oldKey is whatever key/right-child role
// leftChild held before the split.
func (t *BTree) insertIntoParent(parentPage, leftChild, rightChild, splitKey uint32) error {
	page, err := t.pager.GetPage(parentPage)
	if err != nil {
		return err
	}
	data := page.Data[:]

	n := internalNumKeys(data)
	idx := uint32(0)
	for idx < n && internalChild(data, idx) != leftChild {
		idx++
	}

	var oldKey uint32
	wasRightChild := idx == n
	if !wasRightChild {
		oldKey = internalKey(data, idx)
	}

	if n < internalMaxKeys() {
		spliceInternalCell(data, idx, n, splitKey, rightChild, oldKey, wasRightChild)
		return nil
	}

	return t.splitInternalAndInsert(parentPage, data, idx, splitKey, rightChild, oldKey, wasRightChild)
}

// spliceInternalCell performs the splice described in insertIntoParent
// against an internal node with room to grow.
func spliceInternalCell(data []byte, idx, n uint32, splitKey, rightChild, oldKey uint32, wasRightChild bool) {
	for i := n; i > idx+1; i-- {
		setInternalChild(data, i, internalChild(data, i-1))
		setInternalKey(data, i, internalKey(data, i-1))
	}
	if !wasRightChild {
		setInternalKey(data, idx, splitKey)
		setInternalChild(data, idx+1, rightChild)
		setInternalKey(data, idx+1, oldKey)
	} else {
		setInternalChild(data, idx, internalRightChild(data))
		setInternalKey(data, idx, splitKey)
		setInternalRightChild(data, rightChild)
	}
	setInternalNumKeys(data, n+1)
}

// splitInternalAndInsert splits a full internal node into two,
// propagating the middle key up to the grandparent (or a new root).
func (t *BTree) splitInternalAndInsert(oldPageNum uint32, oldData []byte, idx, splitKey, rightChild, oldKey uint32, wasRightChild bool) error {
	n := internalNumKeys(oldData)

	type cell struct{ child, key uint32 }
	all := make([]cell, 0, n+1)
	for i := uint32(0); i < n; i++ {
		all = append(all, cell{internalChild(oldData, i), internalKey(oldData, i)})
	}
	all = append(all, cell{internalRightChild(oldData), 0}) // placeholder key, unused

	if !wasRightChild {
		all[idx].key = splitKey
		all = append(all[:idx+1], append([]cell{{rightChild, oldKey}}, all[idx+1:]...)...)
	} else {
		all[idx].key = splitKey
		all = append(all, cell{rightChild, 0})
	}
	newRight := all[len(all)-1].child
	all = all[:len(all)-1]

	mid := len(all) / 2
	upKey := all[mid].key

	newPageNum, newPage, err := t.pager.AllocatePage()
	if err != nil {
		return errors.Wrap(err, "storage: allocate internal split sibling")
	}
	newData := newPage.Data[:]
	initializeInternal(newData)

	oldWasRoot := isRoot(oldData)
	setRoot(oldData, false)

	setInternalNumKeys(oldData, uint32(mid))
	for i := 0; i < mid; i++ {
		setInternalChild(oldData, uint32(i), all[i].child)
		setInternalKey(oldData, uint32(i), all[i].key)
		reparent(t.pager, all[i].child, oldPageNum)
	}
	setInternalRightChild(oldData, all[mid].child)
	reparent(t.pager, all[mid].child, oldPageNum)

	rest := all[mid+1:]
	setInternalNumKeys(newData, uint32(len(rest)))
	for i, c := range rest {
		setInternalChild(newData, uint32(i), c.child)
		setInternalKey(newData, uint32(i), c.key)
		reparent(t.pager, c.child, newPageNum)
	}
	setInternalRightChild(newData, newRight)
	reparent(t.pager, newRight, newPageNum)

	if oldWasRoot {
		setRoot(oldData, true)
		return t.promoteRoot(newPageNum)
	}

	parentPage := parentPointer(oldData)
	setParentPointer(newData, parentPage)
	return t.insertIntoParent(parentPage, oldPageNum, newPageNum, upKey)
}

func reparent(p *pager.Pager, childPage, parentPage uint32) {
	page, err := p.GetPage(childPage)
	if err != nil {
		return
	}
	setParentPointer(page.Data[:], parentPage)
}
