package storage

import (
	"fmt"
	"io"
	"strings"

	"github.com/markkurossi/tabulate"
)

// PrintConstants writes the layout constants for the tree's row size to
// w, for the ".constants" meta-command.
func (t *BTree) PrintConstants(w io.Writer) {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Constant")
	tab.Header("Value").SetAlign(tabulate.MR)

	rows := []struct {
		name  string
		value uint32
	}{
		{"ROW_SIZE", t.meta.RowSize},
		{"COMMON_NODE_HEADER_SIZE", commonNodeHeaderSize},
		{"LEAF_NODE_HEADER_SIZE", leafNodeHeaderSize},
		{"LEAF_NODE_CELL_SIZE", leafCellSize(t.meta.RowSize)},
		{"LEAF_NODE_MAX_CELLS", leafMaxCells(t.meta.RowSize)},
		{"INTERNAL_NODE_HEADER_SIZE", internalNodeHeaderSize},
		{"INTERNAL_NODE_CELL_SIZE", internalNodeCellSize},
		{"INTERNAL_NODE_MAX_KEYS", internalMaxKeys()},
	}
	for _, r := range rows {
		row := tab.Row()
		row.Column(r.name)
		row.Column(fmt.Sprintf("%d", r.value))
	}
	tab.Print(w)
}

// PrintTree writes a pre-order, indented dump of the tree rooted at
// the given page to w, for the ".btree" meta-command.
func (t *BTree) PrintTree(w io.Writer, pageNum uint32, indent int) error {
	page, err := t.pager.GetPage(pageNum)
	if err != nil {
		return err
	}
	data := page.Data[:]
	pad := strings.Repeat("  ", indent)

	switch getNodeType(data) {
	case nodeLeaf:
		n := leafNumCells(data)
		fmt.Fprintf(w, "%s- leaf (size %d)\n", pad, n)
		for i := uint32(0); i < n; i++ {
			fmt.Fprintf(w, "%s  - %d\n", pad, leafKey(data, i, t.meta.RowSize))
		}
		return nil

	case nodeInternal:
		n := internalNumKeys(data)
		fmt.Fprintf(w, "%s- internal (size %d)\n", pad, n)
		for i := uint32(0); i < n; i++ {
			child := internalChild(data, i)
			if err := t.PrintTree(w, child, indent+1); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s  - key %d\n", pad, internalKey(data, i))
		}
		return t.PrintTree(w, internalRightChild(data), indent+1)

	default:
		return fmt.Errorf("storage: PrintTree: unknown node type on page %d", pageNum)
	}
}

// Stats summarizes the tree's shape for the ".printstats" meta-command.
type Stats struct {
	LeafCount     uint32
	InternalCount uint32
	MaxDepth      uint32
}

// Stats walks the tree and reports leaf/internal page counts and the
// deepest leaf's distance from the root.
func (t *BTree) Stats() (Stats, error) {
	var s Stats
	if err := t.walkStats(t.rootPage, 0, &s); err != nil {
		return Stats{}, err
	}
	return s, nil
}

func (t *BTree) walkStats(pageNum uint32, depth uint32, s *Stats) error {
	page, err := t.pager.GetPage(pageNum)
	if err != nil {
		return err
	}
	data := page.Data[:]

	switch getNodeType(data) {
	case nodeLeaf:
		s.LeafCount++
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		return nil
	case nodeInternal:
		s.InternalCount++
		n := internalNumKeys(data)
		for i := uint32(0); i < n; i++ {
			if err := t.walkStats(internalChild(data, i), depth+1, s); err != nil {
				return err
			}
		}
		return t.walkStats(internalRightChild(data), depth+1, s)
	default:
		return fmt.Errorf("storage: Stats: unknown node type on page %d", pageNum)
	}
}

// PrintStats renders Stats via the same tabulate style as PrintConstants.
func (t *BTree) PrintStats(w io.Writer) error {
	s, err := t.Stats()
	if err != nil {
		return err
	}
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Metric")
	tab.Header("Value").SetAlign(tabulate.MR)

	for _, r := range []struct {
		name  string
		value uint32
	}{
		{"leaf pages", s.LeafCount},
		{"internal pages", s.InternalCount},
		{"max leaf depth", s.MaxDepth},
	} {
		row := tab.Row()
		row.Column(r.name)
		row.Column(fmt.Sprintf("%d", r.value))
	}
	tab.Print(w)
	return nil
}

// RootPage returns the tree's root page number (always RootPageNum),
// for callers such as the ".btree" meta-command that walk the tree
// from its root.
func (t *BTree) RootPage() uint32 { return t.rootPage }
