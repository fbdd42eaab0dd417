package schema

import (
	"os"
	"testing"

	"cqlite/pager"
	"cqlite/storage"
)

func newTempTree(t *testing.T) (*pager.Pager, *storage.BTree) {
	t.Helper()
	f, err := os.CreateTemp("", "schema_test_*.db")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	f.Close()
	path := f.Name()
	t.Cleanup(func() { os.Remove(path) })

	p, err := pager.OpenPager(path)
	if err != nil {
		t.Fatalf("OpenPager: %v", err)
	}
	tree, err := storage.Open(p, Meta)
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	return p, tree
}

func TestInsertAndSelect(t *testing.T) {
	p, tree := newTempTree(t)
	defer p.Close()

	res, err := Insert(tree, Row{Type: "table", Name: "users", TblName: "users", SQL: "CREATE TABLE users (id INT)"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if res != ResultSuccess {
		t.Fatalf("Insert result = %v, want ResultSuccess", res)
	}

	rows, err := Select(tree)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].Name != "users" || rows[0].RootPage == 0 {
		t.Errorf("row = %+v, want name=users and a nonzero root page", rows[0])
	}
}

func TestInsertDuplicateRejected(t *testing.T) {
	p, tree := newTempTree(t)
	defer p.Close()

	row := Row{Type: "index", Name: "idx1", TblName: "users", SQL: "CREATE INDEX idx1 ON users(id)"}
	if res, err := Insert(tree, row); err != nil || res != ResultSuccess {
		t.Fatalf("first Insert: res=%v err=%v", res, err)
	}
	res, err := Insert(tree, row)
	if err != nil {
		t.Fatalf("second Insert: %v", err)
	}
	if res != ResultDuplicateTableOrIndex {
		t.Errorf("second Insert result = %v, want ResultDuplicateTableOrIndex", res)
	}
}

func TestRowidCollisionRetried(t *testing.T) {
	p, tree := newTempTree(t)
	defer p.Close()

	// The sequence forces the second insert's first candidate (42) to
	// collide with the first insert's rowid, exercising the
	// retry-on-collision loop before it falls through to 7.
	fixed := []uint32{42, 42, 7}
	idx := 0
	old := rowidSource
	rowidSource = func() uint32 {
		v := fixed[idx]
		if idx < len(fixed)-1 {
			idx++
		}
		return v
	}
	defer func() { rowidSource = old }()

	if _, err := Insert(tree, Row{Type: "table", Name: "a", TblName: "a", SQL: "CREATE TABLE a()"}); err != nil {
		t.Fatalf("Insert a: %v", err)
	}
	res, err := Insert(tree, Row{Type: "table", Name: "b", TblName: "b", SQL: "CREATE TABLE b()"})
	if err != nil {
		t.Fatalf("Insert b: %v", err)
	}
	if res != ResultSuccess {
		t.Fatalf("Insert b result = %v", res)
	}

	rows, err := Select(tree)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].RowID == rows[1].RowID {
		t.Errorf("both rows got rowid %d, want distinct", rows[0].RowID)
	}
}
