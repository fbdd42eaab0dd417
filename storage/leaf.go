package storage

import "encoding/binary"

// Leaf node layout (spec §3, extended per §9 open question 3):
//
//	byte 0        node_type
//	byte 1        is_root
//	bytes 2-5     parent_pointer
//	bytes 6-9     num_cells
//	bytes 10-13   right_sibling (page of next leaf in key order, noPage if none)
//	bytes 14..    cells: [key:4][value:rowSize] repeated num_cells times
//
// Cell stride depends on rowSize, so every accessor below takes it as a
// parameter; nothing in this file assumes a fixed row width.

func leafNumCells(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data[leafNodeNumCellsOffset : leafNodeNumCellsOffset+leafNodeNumCellsSize])
}

func setLeafNumCells(data []byte, n uint32) {
	binary.LittleEndian.PutUint32(data[leafNodeNumCellsOffset:leafNodeNumCellsOffset+leafNodeNumCellsSize], n)
}

func leafRightSibling(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data[leafNodeRightSiblingOffset : leafNodeRightSiblingOffset+leafNodeRightSiblingSize])
}

func setLeafRightSibling(data []byte, pageNum uint32) {
	binary.LittleEndian.PutUint32(data[leafNodeRightSiblingOffset:leafNodeRightSiblingOffset+leafNodeRightSiblingSize], pageNum)
}

// leafCell returns the byte range of cell cellNum: [key:4 | value:rowSize].
func leafCell(data []byte, cellNum uint32, rowSize uint32) []byte {
	off := leafNodeHeaderSize + cellNum*leafCellSize(rowSize)
	return data[off : off+leafCellSize(rowSize)]
}

func leafKey(data []byte, cellNum uint32, rowSize uint32) uint32 {
	cell := leafCell(data, cellNum, rowSize)
	return binary.LittleEndian.Uint32(cell[leafNodeKeyOffset : leafNodeKeyOffset+leafNodeKeySize])
}

func setLeafKey(data []byte, cellNum uint32, rowSize uint32, key uint32) {
	cell := leafCell(data, cellNum, rowSize)
	binary.LittleEndian.PutUint32(cell[leafNodeKeyOffset:leafNodeKeyOffset+leafNodeKeySize], key)
}

func leafValue(data []byte, cellNum uint32, rowSize uint32) []byte {
	cell := leafCell(data, cellNum, rowSize)
	return cell[leafNodeKeySize:]
}

// initializeLeaf sets type=leaf, is_root=false, num_cells=0,
// right_sibling=noPage.
func initializeLeaf(data []byte) {
	setNodeType(data, nodeLeaf)
	setRoot(data, false)
	setLeafNumCells(data, 0)
	setLeafRightSibling(data, noPage)
}
