package awimage

import (
	"io"

	"github.com/marcinbor85/gohex"
)

// Intel HEX conversion for carved blobs. Some flashing tools (PhoenixSuit
// replacements, openocd scripts) want HEX rather than raw binary, with the
// record addresses carrying the original image offset.

const hexLineLength = 16

// Write data as Intel HEX records starting at the given base address.
func BinToHex(data []byte, base uint32, out io.Writer) error {
	mem := gohex.NewMemory()
	err := mem.AddBinary(base, data)
	if err != nil {
		return err
	}
	return mem.DumpIntelHex(out, hexLineLength)
}

// Parse Intel HEX and flatten the segments back into a single byte slice,
// relative to the lowest segment address. Gaps between segments are filled
// with 0xFF, matching erased flash.
func HexToBin(in io.Reader) ([]byte, uint32, error) {
	mem := gohex.NewMemory()
	err := mem.ParseIntelHex(in)
	if err != nil {
		return nil, 0, err
	}
	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return []byte{}, 0, nil
	}
	base := segments[0].Address
	end := base
	for _, seg := range segments {
		if seg.Address < base {
			base = seg.Address
		}
		if seg.Address+uint32(len(seg.Data)) > end {
			end = seg.Address + uint32(len(seg.Data))
		}
	}
	result := make([]byte, end-base)
	for i := range result {
		result[i] = 0xFF
	}
	for _, seg := range segments {
		copy(result[seg.Address-base:], seg.Data)
	}
	return result, base, nil
}
