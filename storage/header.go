package storage

import "encoding/binary"

// getNodeType reads the discriminator byte that decides whether the
// accessors in leaf.go or interior.go apply to this page.
func getNodeType(data []byte) nodeType {
	return nodeType(data[nodeTypeOffset])
}

func setNodeType(data []byte, t nodeType) {
	data[nodeTypeOffset] = byte(t)
}

func isRoot(data []byte) bool {
	return data[isRootOffset] != 0
}

func setRoot(data []byte, v bool) {
	if v {
		data[isRootOffset] = 1
	} else {
		data[isRootOffset] = 0
	}
}

func parentPointer(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data[parentPointerOffset : parentPointerOffset+parentPointerSize])
}

func setParentPointer(data []byte, pageNum uint32) {
	binary.LittleEndian.PutUint32(data[parentPointerOffset:parentPointerOffset+parentPointerSize], pageNum)
}

// getNodeMaxKey returns the largest key this node itself stores: for a
// leaf, its last cell's key; for an internal node, its last separator
// key. Callers needing the max key of an internal node's whole subtree
// must recurse into its right child instead.
func getNodeMaxKey(data []byte, rowSize uint32) uint32 {
	switch getNodeType(data) {
	case nodeLeaf:
		n := leafNumCells(data)
		if n == 0 {
			return 0
		}
		return leafKey(data, n-1, rowSize)
	case nodeInternal:
		n := internalNumKeys(data)
		if n == 0 {
			return 0
		}
		return internalKey(data, n-1)
	default:
		return 0
	}
}
