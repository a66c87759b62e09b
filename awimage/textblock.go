package awimage

import (
	"bytes"
)

// Extraction of embedded text regions. These have no length field anywhere:
// the end of a block is wherever a long enough run of filler bytes begins.

var (
	// Section headers that open a FEX board configuration.
	FexMarkers = [][]byte{
		[]byte("[product]"),
		[]byte("[platform]"),
		[]byte("[target]"),
		[]byte("[power_sply]"),
	}
	// The one property guaranteed to lead an Android build.prop.
	PropsMarker = []byte("ro.build.id=")
)

// An embedded text region, before normalization. End is exclusive and is
// found heuristically, so the only invariant is End > Offset plus the
// profile's minimum span.
type TextBlock struct {
	Kind   string
	Offset int
	End    int
}

func (t *TextBlock) Size() int {
	return t.End - t.Offset
}

// Raw bytes of the block.
func (t *TextBlock) Slice(data []byte) []byte {
	return data[t.Offset:t.End]
}

// Scan forward from offset until a run of at least run filler bytes or the
// window is exhausted. Returns the position where the filler run begins.
func fillerBoundary(data []byte, offset int, window int, run int, p *ScanProfile) int {
	end := offset
	count := 0
	for end < len(data) && end-offset < window {
		if p.IsFiller(data[end]) {
			count++
			if count >= run {
				return end - count + 1
			}
		} else {
			count = 0
		}
		end++
	}
	return end
}

// Find every text block opened by any of the markers. Blocks shorter than
// minSize are coincidental marker matches inside binary noise and dropped.
// Candidates are deduplicated by starting offset, since overlapping markers
// (a [target] section inside a [product] config) would otherwise report the
// interior of an already-found block.
func ExtractTextBlocks(data []byte, markers [][]byte, kind string, window int, minSize int, run int, p *ScanProfile) []TextBlock {
	blocks := make([]TextBlock, 0)
	seen := make(map[int]bool)
	for _, marker := range markers {
		offset := 0
		for {
			pos := bytes.Index(data[offset:], marker)
			if pos < 0 {
				break
			}
			pos += offset
			if seen[pos] {
				offset = pos + 1
				continue
			}
			seen[pos] = true
			end := fillerBoundary(data, pos, window, run, p)
			if end-pos >= minSize {
				blocks = append(blocks, TextBlock{Kind: kind, Offset: pos, End: end})
			}
			offset = end
		}
	}
	return blocks
}

// All FEX configuration blocks in the image.
func ExtractConfigBlocks(data []byte, p *ScanProfile) []TextBlock {
	return ExtractTextBlocks(data, FexMarkers, KindConfig, p.ConfigWindow, p.ConfigMinSize, p.FillerRun, p)
}

// The build.prop block, or nil when the image has none. Only the first
// occurrence matters; properties appear exactly once per image.
func ExtractPropsBlock(data []byte, p *ScanProfile) *TextBlock {
	blocks := ExtractTextBlocks(data, [][]byte{PropsMarker}, KindProps, p.PropsWindow, p.PropsMinSize, p.PropsRun, p)
	if len(blocks) == 0 {
		return nil
	}
	return &blocks[0]
}

// Strip the null padding out of a structured configuration block. FEX files
// carry their own line structure; the nulls are pure padding.
func NormalizeConfig(raw []byte) []byte {
	return bytes.ReplaceAll(raw, []byte{0}, []byte{})
}

// Rewrite nulls to newlines for a build.prop block. The original line breaks
// were replaced with null separators when the file was packed, so this
// recovers one property per line.
func NormalizeProps(raw []byte) []byte {
	return bytes.ReplaceAll(raw, []byte{0}, []byte{'\n'})
}
