// Package schema defines the schema row — the one record type this
// engine persists — and the CREATE/INSERT/SELECT executor that
// operates on the single B+-tree rooted at page 0 of the database
// file.
package schema

import (
	"math/rand"

	"cqlite/column"
	"cqlite/storage"
)

// Column widths, in bytes. tbl_name equals name for a table object and
// names the owning table for an index object; sql is the original DDL
// verbatim, truncated to fit.
const (
	TypeLen    = 16
	NameLen    = 64
	TblNameLen = 64
	SQLLen     = 256
)

// Schema is the column.Schema describing a SchemaRow's on-disk layout:
// rowid, type, name, tbl_name, root_page, sql, in that field order.
var Schema = column.Schema{
	{Name: "rowid", Type: column.TypeInt},
	{Name: "type", Type: column.TypeText, MaxLength: TypeLen},
	{Name: "name", Type: column.TypeText, MaxLength: NameLen},
	{Name: "tbl_name", Type: column.TypeText, MaxLength: TblNameLen},
	{Name: "root_page", Type: column.TypeInt},
	{Name: "sql", Type: column.TypeText, MaxLength: SQLLen},
}

// Meta is the derived TableMeta for Schema, shared by every schema
// tree this engine opens.
var Meta = storage.BuildTableMeta(Schema)

// Row is a decoded schema record: a table or index description.
type Row struct {
	RowID    uint32
	Type     string
	Name     string
	TblName  string
	RootPage uint32
	SQL      string
}

// ToStorageRow encodes r as a storage.Row in Schema's column order.
func (r Row) ToStorageRow() storage.Row {
	return storage.Row{r.RowID, r.Type, r.Name, r.TblName, r.RootPage, r.SQL}
}

// RowFromStorage decodes a storage.Row produced by DeserializeRow
// against Meta back into a Row.
func RowFromStorage(sr storage.Row) Row {
	return Row{
		RowID:    sr[0].(uint32),
		Type:     sr[1].(string),
		Name:     sr[2].(string),
		TblName:  sr[3].(string),
		RootPage: sr[4].(uint32),
		SQL:      sr[5].(string),
	}
}

// rowidSource supplies pseudo-random candidate rowids. Exposed as a
// var so tests can substitute a deterministic sequence.
var rowidSource = rand.Uint32

// insertRow is the common body of CREATE and INSERT: reject a
// duplicate (type, name), lazily allocate a root page for a
// fresh object, then assign a collision-free rowid and insert
// (spec §4.F, grounded on the original's execute_insert/execute_create).
func insertRow(tree *storage.BTree, row Row) (Result, error) {
	c, err := tree.Start()
	if err != nil {
		return 0, err
	}
	for {
		valid, err := c.Valid()
		if err != nil {
			return 0, err
		}
		if !valid {
			break
		}
		existing, err := c.Value()
		if err != nil {
			return 0, err
		}
		er := RowFromStorage(existing)
		if er.Type == row.Type && er.Name == row.Name {
			return ResultDuplicateTableOrIndex, nil
		}
		if err := c.Advance(); err != nil {
			return 0, err
		}
	}

	if row.RootPage == 0 {
		pageNum, err := tree.AllocateObjectRoot()
		if err != nil {
			return 0, err
		}
		row.RootPage = pageNum
	}

	for {
		candidate := rowidSource()
		row.RowID = candidate
		found, err := tree.Find(candidate)
		if err != nil {
			return 0, err
		}
		valid, err := found.Valid()
		if err != nil {
			return 0, err
		}
		if valid {
			k, err := found.Key()
			if err != nil {
				return 0, err
			}
			if k == candidate {
				continue
			}
		}
		break
	}

	if err := tree.Insert(row.RowID, row.ToStorageRow()); err != nil {
		return 0, err
	}
	return ResultSuccess, nil
}

// Insert handles a plain `insert <type> <name> <tbl_name> <sql...>`
// statement.
func Insert(tree *storage.BTree, row Row) (Result, error) {
	return insertRow(tree, row)
}

// Create handles a parsed `create table ...` / `create index ...`
// statement. Its executor body is identical to Insert's; the
// distinction lives entirely in how the statement was parsed.
func Create(tree *storage.BTree, row Row) (Result, error) {
	return insertRow(tree, row)
}

// Select returns every schema row in ascending rowid order.
func Select(tree *storage.BTree) ([]Row, error) {
	c, err := tree.Start()
	if err != nil {
		return nil, err
	}
	var rows []Row
	for {
		valid, err := c.Valid()
		if err != nil {
			return nil, err
		}
		if !valid {
			break
		}
		sr, err := c.Value()
		if err != nil {
			return nil, err
		}
		rows = append(rows, RowFromStorage(sr))
		if err := c.Advance(); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// Result is an executor outcome (spec §4.F).
type Result int

const (
	ResultSuccess Result = iota
	ResultDuplicateTableOrIndex
	ResultTableFull
)
