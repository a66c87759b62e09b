package awimage

import (
	"encoding/binary"
)

// Round width up to the next multiple of align.
func AlignWidth(width uint, align uint) uint {
	if width%align == 0 {
		return width
	}
	return (width/align + 1) * align
}

// Read a little endian uint32 out of the middle of data. The ok return is
// false if the field extends past the end of the buffer; estimators use that
// to fall back to their kind-specific defaults instead of failing the scan.
func readLE32(data []byte, index int) (uint32, bool) {
	if index < 0 || index+4 > len(data) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data[index : index+4]), true
}

func readLE16(data []byte, index int) (uint16, bool) {
	if index < 0 || index+2 > len(data) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(data[index : index+2]), true
}

func readLE64(data []byte, index int) (uint64, bool) {
	if index < 0 || index+8 > len(data) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(data[index : index+8]), true
}

// Whether data begins with the pattern at the given offset.
func hasPattern(data []byte, offset int, pattern []byte) bool {
	if offset < 0 || offset+len(pattern) > len(data) {
		return false
	}
	for i, b := range pattern {
		if data[offset+i] != b {
			return false
		}
	}
	return true
}

// Clamp size so offset+size stays inside the buffer.
func clampToBuffer(data []byte, offset int, size int) int {
	if offset+size > len(data) {
		return len(data) - offset
	}
	return size
}
