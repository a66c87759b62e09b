package awimage

import (
	"testing"
)

func testBootExtent(t *testing.T, kernel uint32, ramdisk uint32, second uint32, page uint32, expected int) {
	data := makeNoise(4096)
	copy(data[512:], makeBootHeader(kernel, ramdisk, second, page))
	size, _, ok := EstimateBootImage(data, 512, DefaultProfile())
	if !ok {
		t.Fatalf("Expected boot estimate to succeed")
	}
	if size != expected {
		t.Fatalf("Expected boot extent %d, got %d", expected, size)
	}
}

func TestEstimateBootImage_PageMath(t *testing.T) {
	// page + align(kernel) + align(ramdisk) + align(second)
	testBootExtent(t, 5000, 3000, 0, 2048, 2048+6144+4096+0)
	testBootExtent(t, 2048, 2048, 2048, 2048, 2048*4)
	testBootExtent(t, 1, 1, 1, 4096, 4096*4)
}

func TestEstimateBootImage_ZeroPageDefaults(t *testing.T) {
	// A zero page size field means the old default of 2048
	testBootExtent(t, 100, 100, 0, 0, 2048+2048+2048)
}

func TestEstimateBootImage_Clamped(t *testing.T) {
	p := DefaultProfile()
	testBootExtent(t, 0xF0000000, 0xF0000000, 0, 2048, p.BootMaxSize)
}

func TestEstimateBootImage_TruncatedHeader(t *testing.T) {
	p := DefaultProfile()
	// Magic fits but the page size field runs off the end of the buffer
	data := makeNoise(20)
	copy(data, MagicBoot)
	size, _, ok := EstimateBootImage(data, 0, p)
	if !ok {
		t.Fatalf("Truncated header must still produce an artifact")
	}
	if size != p.BootDefaultSize {
		t.Fatalf("Expected fallback size %d, got %d", p.BootDefaultSize, size)
	}
}

func TestParseBootHeader_Fields(t *testing.T) {
	data := makeBootHeader(1234, 5678, 99, 4096)
	header, ok := ParseBootHeader(data, 0)
	if !ok {
		t.Fatalf("Expected header parse to succeed")
	}
	if header.KernelSize != 1234 {
		t.Fatalf("Expected kernel size 1234, got %d", header.KernelSize)
	}
	if header.RamdiskSize != 5678 {
		t.Fatalf("Expected ramdisk size 5678, got %d", header.RamdiskSize)
	}
	if header.SecondSize != 99 {
		t.Fatalf("Expected second size 99, got %d", header.SecondSize)
	}
	if header.PageSize != 4096 {
		t.Fatalf("Expected page size 4096, got %d", header.PageSize)
	}
}
