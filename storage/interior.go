package storage

import "encoding/binary"

// Internal node layout (spec §3):
//
//	byte 0        node_type
//	byte 1        is_root
//	bytes 2-5     parent_pointer
//	bytes 6-9     num_keys
//	bytes 10-13   right_child (page covering keys > the last stored key)
//	bytes 14..    cells: [child:4][key:4] repeated num_keys times
//
// Cell i's child pointer covers all keys <= cell i's key and > cell
// (i-1)'s key (or all keys <= cell 0's key, for i=0).

func internalNumKeys(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data[internalNodeNumKeysOffset : internalNodeNumKeysOffset+internalNodeNumKeysSize])
}

func setInternalNumKeys(data []byte, n uint32) {
	binary.LittleEndian.PutUint32(data[internalNodeNumKeysOffset:internalNodeNumKeysOffset+internalNodeNumKeysSize], n)
}

func internalRightChild(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data[internalNodeRightChildOffset : internalNodeRightChildOffset+internalNodeRightChildSize])
}

func setInternalRightChild(data []byte, pageNum uint32) {
	binary.LittleEndian.PutUint32(data[internalNodeRightChildOffset:internalNodeRightChildOffset+internalNodeRightChildSize], pageNum)
}

func internalCellOffset(cellNum uint32) uint32 {
	return internalNodeHeaderSize + cellNum*internalNodeCellSize
}

func internalChild(data []byte, cellNum uint32) uint32 {
	off := internalCellOffset(cellNum)
	return binary.LittleEndian.Uint32(data[off : off+internalNodeChildSize])
}

func setInternalChild(data []byte, cellNum uint32, pageNum uint32) {
	off := internalCellOffset(cellNum)
	binary.LittleEndian.PutUint32(data[off:off+internalNodeChildSize], pageNum)
}

func internalKey(data []byte, cellNum uint32) uint32 {
	off := internalCellOffset(cellNum) + internalNodeChildSize
	return binary.LittleEndian.Uint32(data[off : off+internalNodeKeySize])
}

func setInternalKey(data []byte, cellNum uint32, key uint32) {
	off := internalCellOffset(cellNum) + internalNodeChildSize
	binary.LittleEndian.PutUint32(data[off:off+internalNodeKeySize], key)
}

// childAtIndex returns the page number of the i'th child of an internal
// node, where i ranges over [0, numKeys], i == numKeys meaning the
// right child.
func childAtIndex(data []byte, index uint32) uint32 {
	numKeys := internalNumKeys(data)
	if index > numKeys {
		return internalRightChild(data)
	}
	if index == numKeys {
		return internalRightChild(data)
	}
	return internalChild(data, index)
}

// initializeInternal sets type=internal, is_root=false, num_keys=0,
// right_child=0.
func initializeInternal(data []byte) {
	setNodeType(data, nodeInternal)
	setRoot(data, false)
	setInternalNumKeys(data, 0)
	setInternalRightChild(data, 0)
}

// internalFindChildIndex returns the index (0..numKeys) of the child
// that key belongs under, via binary search over the node's separator
// keys (spec §9 open question 1: internal-node search is a real binary
// search, not the original's fatal stub).
func internalFindChildIndex(data []byte, key uint32) uint32 {
	numKeys := internalNumKeys(data)
	lo, hi := uint32(0), numKeys // [lo, hi)
	for lo != hi {
		mid := lo + (hi-lo)/2
		if internalKey(data, mid) >= key {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
