package storage

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"

	"cqlite/column"
)

// Row is one record's column values, in schema order. An int column's
// value is a uint32; a text column's value is a string (already
// trimmed of null padding).
type Row []interface{}

// TableMeta pairs a column.Schema with the derived layout (each
// column's byte offset and size, and the row's total serialized
// width) that the schema alone doesn't carry.
type TableMeta struct {
	Schema  column.Schema
	RowSize uint32
}

// BuildTableMeta lays out schema's columns back to back in declaration
// order, filling in each Column's Offset and ByteSize, and returns the
// resulting TableMeta. schema is not mutated; BuildTableMeta works on
// and returns a copy.
func BuildTableMeta(schema column.Schema) TableMeta {
	laid := make(column.Schema, len(schema))
	copy(laid, schema)

	var offset uint32
	for i := range laid {
		switch laid[i].Type {
		case column.TypeInt:
			laid[i].ByteSize = 4
		case column.TypeText:
			laid[i].ByteSize = laid[i].MaxLength
		}
		laid[i].Offset = offset
		offset += laid[i].ByteSize
	}

	return TableMeta{Schema: laid, RowSize: offset}
}

// SerializeRow encodes row into dst, which must be exactly
// meta.RowSize bytes. Text columns are null-padded to their MaxLength;
// an oversized text value is silently truncated to fit, matching the
// original engine's fixed-width contract.
func SerializeRow(meta TableMeta, row Row, dst []byte) error {
	if uint32(len(dst)) != meta.RowSize {
		return errors.Errorf("storage: SerializeRow: dst length %d, expected %d", len(dst), meta.RowSize)
	}
	if len(row) != len(meta.Schema) {
		return errors.Errorf("storage: SerializeRow: row has %d columns, expected %d", len(row), len(meta.Schema))
	}

	for i := range dst {
		dst[i] = 0
	}

	for i, col := range meta.Schema {
		base := col.Offset
		switch col.Type {
		case column.TypeInt:
			val, ok := row[i].(uint32)
			if !ok {
				return errors.Errorf("storage: SerializeRow: column %q expects uint32, got %T", col.Name, row[i])
			}
			binary.LittleEndian.PutUint32(dst[base:base+4], val)

		case column.TypeText:
			s, ok := row[i].(string)
			if !ok {
				return errors.Errorf("storage: SerializeRow: column %q expects string, got %T", col.Name, row[i])
			}
			b := []byte(s)
			if uint32(len(b)) > col.MaxLength {
				b = b[:col.MaxLength]
			}
			copy(dst[base:base+uint32(len(b))], b)
		}
	}

	return nil
}

// DeserializeRow is the inverse of SerializeRow: it reads exactly
// meta.RowSize bytes from src and returns the decoded column values.
func DeserializeRow(meta TableMeta, src []byte) (Row, error) {
	if uint32(len(src)) != meta.RowSize {
		return nil, errors.Errorf("storage: DeserializeRow: src length %d, expected %d", len(src), meta.RowSize)
	}

	row := make(Row, len(meta.Schema))
	for i, col := range meta.Schema {
		base := col.Offset
		switch col.Type {
		case column.TypeInt:
			row[i] = binary.LittleEndian.Uint32(src[base : base+4])

		case column.TypeText:
			raw := src[base : base+col.ByteSize]
			row[i] = strings.TrimRight(string(raw), "\x00")
		}
	}

	return row, nil
}
