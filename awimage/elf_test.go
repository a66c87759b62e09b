package awimage

import (
	"testing"
)

// A buffer holding a 64 bit ET_DYN header at offset with a known library
// name placed shortly after it.
func makeLibraryBuffer(offset int, shOff uint64, entSize uint16, num uint16, name string) []byte {
	data := makeNoise(offset + 20000)
	copy(data[offset:], makeElf64Header(elfTypeDyn, shOff, entSize, num))
	copy(data[offset+200:], name)
	return data
}

func TestEstimateLibrary_SectionTableExtent(t *testing.T) {
	data := makeLibraryBuffer(4096, 100000, 64, 30, "libMali.so")
	size, name, ok := EstimateLibrary(data, 4096, DefaultProfile())
	if !ok {
		t.Fatalf("Expected library candidate to be reported")
	}
	expected := 100000 + 64*30
	if size != expected {
		t.Fatalf("Expected library extent %d, got %d", expected, size)
	}
	if name != "libMali.so" {
		t.Fatalf("Expected name libMali.so, got %s", name)
	}
}

func TestEstimateLibrary_32Bit(t *testing.T) {
	data := makeNoise(20000)
	copy(data[512:], makeElf32Header(elfTypeDyn, 50000, 40, 25))
	copy(data[700:], "libcedarc.so")
	size, name, ok := EstimateLibrary(data, 512, DefaultProfile())
	if !ok {
		t.Fatalf("Expected 32 bit library candidate to be reported")
	}
	if size != 50000+40*25 {
		t.Fatalf("Expected library extent %d, got %d", 50000+40*25, size)
	}
	if name != "libcedarc.so" {
		t.Fatalf("Expected name libcedarc.so, got %s", name)
	}
}

func TestEstimateLibrary_NotDynDiscarded(t *testing.T) {
	// ET_EXEC (2) must not be carved even with a name nearby
	data := makeNoise(20000)
	copy(data[512:], makeElf64Header(2, 100000, 64, 30))
	copy(data[700:], "libMali.so")
	_, _, ok := EstimateLibrary(data, 512, DefaultProfile())
	if ok {
		t.Fatalf("Expected ET_EXEC candidate to be discarded")
	}
}

func TestEstimateLibrary_AnonymousDiscarded(t *testing.T) {
	data := makeNoise(20000)
	copy(data[512:], makeElf64Header(elfTypeDyn, 100000, 64, 30))
	_, _, ok := EstimateLibrary(data, 512, DefaultProfile())
	if ok {
		t.Fatalf("Expected nameless candidate to be discarded")
	}
}

func TestEstimateLibrary_NameOutsideWindow(t *testing.T) {
	p := DefaultProfile()
	data := makeNoise(30000)
	copy(data[512:], makeElf64Header(elfTypeDyn, 100000, 64, 30))
	copy(data[512+p.LibraryNameWindow+100:], "libMali.so")
	_, _, ok := EstimateLibrary(data, 512, p)
	if ok {
		t.Fatalf("Expected name outside the window to not count")
	}
}

func testLibraryFallback(t *testing.T, shOff uint64, entSize uint16, num uint16) {
	p := DefaultProfile()
	data := makeLibraryBuffer(512, shOff, entSize, num, "libVE.so")
	size, _, ok := EstimateLibrary(data, 512, p)
	if !ok {
		t.Fatalf("Expected candidate to be reported")
	}
	if size != p.LibraryDefaultSize {
		t.Fatalf("Expected fallback size %d, got %d", p.LibraryDefaultSize, size)
	}
}

func TestEstimateLibrary_BoundsFallback(t *testing.T) {
	testLibraryFallback(t, 10, 2, 4)              // below the floor
	testLibraryFallback(t, 1<<40, 64, 30)         // way past the ceiling
	testLibraryFallback(t, 60*1024*1024, 64, 100) // just past the ceiling
}

func testClassify(t *testing.T, name string, expected string) {
	result := ClassifyLibrary(name)
	if result != expected {
		t.Fatalf("%s: Expected category %s, got %s", name, expected, result)
	}
}

func TestClassifyLibrary_All(t *testing.T) {
	testClassify(t, "libGLES_mali.so", CategoryEgl)
	testClassify(t, "libEGL_something.so", CategoryEgl)
	testClassify(t, "gralloc.sun8i.so", CategoryHw)
	testClassify(t, "hwcomposer.sun50i.so", CategoryHw)
	testClassify(t, "audio.primary.sun8i.so", CategoryHw)
	testClassify(t, "libMali.so", CategoryGeneric)
	testClassify(t, "libcedarc.so", CategoryGeneric)
	testClassify(t, "", CategoryGeneric)
	testClassify(t, "totally-unknown.so", CategoryGeneric)
}
