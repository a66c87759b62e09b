package awimage

import (
	"bytes"
	"strings"
	"testing"
)

func TestExtractConfigBlocks_FillerBoundary(t *testing.T) {
	p := DefaultProfile()
	data := makeNoise(8192)
	// Marker plus printable content, exactly 600 bytes, then 10 nulls
	copy(data[1000:], "[product]")
	fillPrintable(data, 1009, 591)
	for i := 0; i < 10; i++ {
		data[1600+i] = 0
	}
	blocks := ExtractConfigBlocks(data, p)
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 config block, got %d", len(blocks))
	}
	if blocks[0].Offset != 1000 {
		t.Fatalf("Expected block at 1000, got %d", blocks[0].Offset)
	}
	if blocks[0].Size() != 600 {
		t.Fatalf("Expected block size 600, got %d", blocks[0].Size())
	}
	normalized := NormalizeConfig(blocks[0].Slice(data))
	if bytes.IndexByte(normalized, 0) >= 0 {
		t.Fatalf("Expected no nulls in normalized config")
	}
	if len(normalized) != 600 {
		t.Fatalf("Expected 600 normalized bytes, got %d", len(normalized))
	}
}

func TestExtractConfigBlocks_ShortCandidateDiscarded(t *testing.T) {
	p := DefaultProfile()
	data := makeNoise(4096)
	copy(data[100:], "[target]")
	fillPrintable(data, 108, 120) // below the 500 byte minimum
	for i := 0; i < 12; i++ {
		data[228+i] = 0
	}
	blocks := ExtractConfigBlocks(data, p)
	if len(blocks) != 0 {
		t.Fatalf("Expected short candidate to be discarded, got %d blocks", len(blocks))
	}
	// The loose profile accepts the same candidate
	blocks = ExtractConfigBlocks(data, LooseProfile())
	if len(blocks) != 1 {
		t.Fatalf("Expected loose profile to keep the candidate, got %d blocks", len(blocks))
	}
}

func TestExtractConfigBlocks_InteriorMarker(t *testing.T) {
	p := DefaultProfile()
	data := makeNoise(8192)
	// A [product] config containing a [target] section header. The interior
	// marker starts its own candidate; under the default minimum span it's
	// too short to survive, so only the outer block is reported.
	copy(data[1000:], "[product]")
	fillPrintable(data, 1009, 300)
	copy(data[1309:], "[target]")
	fillPrintable(data, 1317, 300)
	for i := 0; i < 12; i++ {
		data[1617+i] = 0
	}
	blocks := ExtractConfigBlocks(data, p)
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Offset != 1000 {
		t.Fatalf("Expected the outer block at 1000, got %d", blocks[0].Offset)
	}
	// The loose profile's 100 byte minimum keeps the interior candidate too
	blocks = ExtractConfigBlocks(data, LooseProfile())
	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks under the loose profile, got %d", len(blocks))
	}
}

func TestExtractConfigBlocks_MarkerNoiseMakesProgress(t *testing.T) {
	p := DefaultProfile()
	data := makeNoise(8192)
	// A marker immediately followed by filler: zero-length candidate. The
	// extractor must advance past it and still find the real block later.
	copy(data[100:], "[product]")
	for i := 0; i < 12; i++ {
		data[109+i] = 0
	}
	copy(data[2000:], "[product]")
	fillPrintable(data, 2009, 591)
	for i := 0; i < 12; i++ {
		data[2600+i] = 0
	}
	blocks := ExtractConfigBlocks(data, p)
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Offset != 2000 {
		t.Fatalf("Expected block at 2000, got %d", blocks[0].Offset)
	}
}

func TestExtractConfigBlocks_WindowExhaustion(t *testing.T) {
	p := DefaultProfile()
	p.ConfigWindow = 2000
	data := makeNoise(8192)
	copy(data[100:], "[platform]")
	fillPrintable(data, 110, 6000) // no filler run inside the window
	blocks := ExtractConfigBlocks(data, p)
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Size() != 2000 {
		t.Fatalf("Expected window-limited size 2000, got %d", blocks[0].Size())
	}
}

func TestLooseProfile_FFCountsAsFiller(t *testing.T) {
	p := LooseProfile()
	data := makeNoise(4096)
	copy(data[100:], "[product]")
	fillPrintable(data, 109, 191)
	for i := 0; i < 9; i++ {
		data[300+i] = 0xFF
	}
	blocks := ExtractConfigBlocks(data, p)
	if len(blocks) != 1 {
		t.Fatalf("Expected 0xFF run to terminate the block, got %d blocks", len(blocks))
	}
	if blocks[0].Size() != 200 {
		t.Fatalf("Expected block size 200, got %d", blocks[0].Size())
	}
	// The default profile doesn't treat 0xFF as filler, so the block runs on
	// into the noise and the boundary is the window instead
	strict := DefaultProfile()
	strict.ConfigWindow = 1000
	blocks = ExtractConfigBlocks(data, strict)
	if len(blocks) != 1 || blocks[0].Size() != 1000 {
		t.Fatalf("Expected strict profile to ignore 0xFF filler")
	}
}

func TestExtractPropsBlock_NullsToNewlines(t *testing.T) {
	p := DefaultProfile()
	data := makeNoise(8192)
	props := "ro.build.id=JRO03C\x00ro.build.version.release=4.1.1\x00ro.product.board=sun8i"
	copy(data[2000:], props)
	for i := 0; i < 6; i++ {
		data[2000+len(props)+i] = 0
	}
	block := ExtractPropsBlock(data, p)
	if block == nil {
		t.Fatalf("Expected a props block")
	}
	if block.Offset != 2000 {
		t.Fatalf("Expected props block at 2000, got %d", block.Offset)
	}
	if block.Size() != len(props) {
		t.Fatalf("Expected props size %d, got %d", len(props), block.Size())
	}
	lines := strings.Split(string(NormalizeProps(block.Slice(data))), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 property lines, got %d", len(lines))
	}
	if lines[1] != "ro.build.version.release=4.1.1" {
		t.Fatalf("Expected version property line, got %s", lines[1])
	}
}

func TestExtractPropsBlock_Missing(t *testing.T) {
	block := ExtractPropsBlock(makeNoise(4096), DefaultProfile())
	if block != nil {
		t.Fatalf("Expected no props block in noise")
	}
}
