// Package column describes the fixed-width columns that make up a row.
//
// A Schema is the static description consumed by the storage package's
// row codec: every row this engine ever writes to disk (today, only the
// schema row of the schema tree) is laid out by concatenating its
// columns in declaration order, each at a fixed byte offset.
package column

// Type identifies the wire representation of a column's values.
type Type int

const (
	// TypeInt is a 4-byte unsigned integer.
	TypeInt Type = iota
	// TypeText is a fixed-capacity, null-padded byte string.
	TypeText
)

// Column describes one field of a row: its name, wire type, and the
// byte range it occupies within a serialized row. Offset and ByteSize
// are filled in by BuildTableMeta (see the storage package); callers
// populate only Name, Type, and — for TypeText — MaxLength.
type Column struct {
	Name      string
	Type      Type
	Offset    uint32
	ByteSize  uint32
	MaxLength uint32 // capacity in bytes; required (>0) for TypeText
}

// Schema is an ordered list of columns. Column order is the on-disk
// field order.
type Schema []Column
