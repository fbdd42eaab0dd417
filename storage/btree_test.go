package storage

import (
	"os"
	"testing"

	"cqlite/column"
	"cqlite/pager"
)

func newTempDBPath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "storage_test_*.db")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func testSchema() column.Schema {
	return column.Schema{
		{Name: "id", Type: column.TypeInt},
		{Name: "name", Type: column.TypeText, MaxLength: 16},
	}
}

func openTree(t *testing.T, path string) (*pager.Pager, *BTree) {
	t.Helper()
	p, err := pager.OpenPager(path)
	if err != nil {
		t.Fatalf("OpenPager: %v", err)
	}
	bt, err := Open(p, BuildTableMeta(testSchema()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return p, bt
}

func TestOpenFreshFileRootIsPageZero(t *testing.T) {
	path := newTempDBPath(t)
	p, bt := openTree(t, path)
	defer p.Close()

	if bt.RootPage() != RootPageNum {
		t.Errorf("root page = %d, want %d (page 0 is the root of the schema tree)", bt.RootPage(), RootPageNum)
	}
	// The named testable property: the first call after opening a fresh
	// file returns 1, since page 0 is already the root leaf.
	if got := p.GetUnusedPageNum(); got != 1 {
		t.Errorf("GetUnusedPageNum() after fresh Open = %d, want 1", got)
	}
}

func TestRootPageNumberStaysFixedAcrossSplits(t *testing.T) {
	path := newTempDBPath(t)
	p, bt := openTree(t, path)
	defer p.Close()

	meta := BuildTableMeta(testSchema())
	max := leafMaxCells(meta.RowSize)

	// Enough inserts to force the root leaf to split (promoting a new
	// internal root) and then some, without relocating RootPageNum: the
	// root's own page number is a fixed file-format invariant (spec §3:
	// Table.root_page_num "always 0"; spec §6: "Page 0 is the root of
	// the schema tree"), not something a split moves a pointer to.
	for i := uint32(0); i < max*3; i++ {
		if err := bt.Insert(i, Row{i, "v"}); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	if bt.RootPage() != RootPageNum {
		t.Fatalf("root page = %d after splits, want %d", bt.RootPage(), RootPageNum)
	}
	page, err := p.GetPage(RootPageNum)
	if err != nil {
		t.Fatalf("GetPage(RootPageNum): %v", err)
	}
	if !isRoot(page.Data[:]) {
		t.Errorf("page %d no longer marked is_root after splits", RootPageNum)
	}
	if getNodeType(page.Data[:]) != nodeInternal {
		t.Errorf("page %d node type = %v, want internal after the root split", RootPageNum, getNodeType(page.Data[:]))
	}
}

func TestInsertFindRoundTrip(t *testing.T) {
	path := newTempDBPath(t)
	p, bt := openTree(t, path)
	defer p.Close()

	if err := bt.Insert(7, Row{uint32(7), "seven"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	c, err := bt.Find(7)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	valid, err := c.Valid()
	if err != nil || !valid {
		t.Fatalf("Valid() = %v, %v; want true, nil", valid, err)
	}
	row, err := c.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if row[0] != uint32(7) || row[1] != "seven" {
		t.Errorf("row = %#v, want {7, seven}", row)
	}
}

func TestInsertOverwritesExistingKey(t *testing.T) {
	path := newTempDBPath(t)
	p, bt := openTree(t, path)
	defer p.Close()

	if err := bt.Insert(1, Row{uint32(1), "first"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := bt.Insert(1, Row{uint32(1), "second"}); err != nil {
		t.Fatalf("Insert overwrite: %v", err)
	}

	c, _ := bt.Find(1)
	row, _ := c.Value()
	if row[1] != "second" {
		t.Errorf("row[1] = %q, want \"second\"", row[1])
	}
}

func TestCellOrderingAndFullScan(t *testing.T) {
	path := newTempDBPath(t)
	p, bt := openTree(t, path)
	defer p.Close()

	keys := []uint32{5, 1, 9, 3, 7, 2, 8, 4, 6}
	for _, k := range keys {
		if err := bt.Insert(k, Row{k, "v"}); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	c, err := bt.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	var seen []uint32
	for {
		valid, err := c.Valid()
		if err != nil {
			t.Fatalf("Valid: %v", err)
		}
		if !valid {
			break
		}
		k, err := c.Key()
		if err != nil {
			t.Fatalf("Key: %v", err)
		}
		seen = append(seen, k)
		if err := c.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}

	if len(seen) != len(keys) {
		t.Fatalf("scanned %d keys, want %d", len(seen), len(keys))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i-1] >= seen[i] {
			t.Fatalf("keys out of order at %d: %d >= %d", i, seen[i-1], seen[i])
		}
	}
}

func TestFullLeafTriggersSplit(t *testing.T) {
	path := newTempDBPath(t)
	p, bt := openTree(t, path)
	defer p.Close()

	meta := BuildTableMeta(testSchema())
	max := leafMaxCells(meta.RowSize)

	for i := uint32(0); i < max+1; i++ {
		if err := bt.Insert(i, Row{i, "v"}); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	stats, err := bt.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.LeafCount != 2 {
		t.Errorf("LeafCount = %d, want 2", stats.LeafCount)
	}
	if stats.InternalCount != 1 {
		t.Errorf("InternalCount = %d, want 1", stats.InternalCount)
	}

	c, _ := bt.Start()
	var count uint32
	for {
		valid, _ := c.Valid()
		if !valid {
			break
		}
		count++
		c.Advance()
	}
	if count != max+1 {
		t.Errorf("scanned %d rows after split, want %d", count, max+1)
	}
}

func TestManyInsertsAcrossSeveralLeafSplits(t *testing.T) {
	path := newTempDBPath(t)
	p, bt := openTree(t, path)
	defer p.Close()

	meta := BuildTableMeta(testSchema())
	max := leafMaxCells(meta.RowSize)
	n := max*4 + 7 // several leaf splits under one internal root, within TableMaxPages

	for i := uint32(0); i < n; i++ {
		if err := bt.Insert(i, Row{i, "v"}); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	c, err := bt.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	var seen []uint32
	for {
		valid, err := c.Valid()
		if err != nil {
			t.Fatalf("Valid: %v", err)
		}
		if !valid {
			break
		}
		k, _ := c.Key()
		seen = append(seen, k)
		if err := c.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	if uint32(len(seen)) != n {
		t.Fatalf("scanned %d rows, want %d", len(seen), n)
	}
	for i := uint32(0); i < n; i++ {
		if seen[i] != i {
			t.Fatalf("seen[%d] = %d, want %d", i, seen[i], i)
		}
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := newTempDBPath(t)

	p, bt := openTree(t, path)
	for _, k := range []uint32{3, 1, 2} {
		if err := bt.Insert(k, Row{k, "v"}); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	p2, bt2 := openTree(t, path)
	defer p2.Close()

	c, err := bt2.Start()
	if err != nil {
		t.Fatalf("Start after reopen: %v", err)
	}
	var keys []uint32
	for {
		valid, _ := c.Valid()
		if !valid {
			break
		}
		k, _ := c.Key()
		keys = append(keys, k)
		c.Advance()
	}
	if len(keys) != 3 {
		t.Fatalf("keys after reopen = %v, want 3 entries", keys)
	}
}
