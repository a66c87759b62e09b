package awimage

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml"
)

const (
	// Block-aligned formats (boot/sparse/gzip) always start on a 512 byte
	// boundary in these images; libraries can start on any 4 byte offset.
	BlockStride = 512
	DenseStride = 4

	KindBoot     = "boot"
	KindSparse   = "sparse"
	KindGzip     = "gzip"
	KindLibrary  = "library"
	KindBootlogo = "bootlogo"
	KindConfig   = "config"
	KindProps    = "props"
)

// Every threshold, window, ceiling and fallback used by the estimators and
// the text block extractor. A single profile value replaces the numeric
// literals that would otherwise be duplicated across estimators.
type ScanProfile struct {
	BootMaxSize     int // ceiling for a boot image extent
	BootDefaultSize int // fallback when header fields are unreadable
	BootDefaultPage int // page size used when the header says 0

	SparseMaxSize     int
	SparseDefaultSize int

	LibraryMinSize     int // anything smaller is not a plausible .so
	LibraryMaxSize     int
	LibraryDefaultSize int
	LibraryNameWindow  int // bytes after the ELF header searched for a known name

	ConfigWindow  int  // max bytes scanned forward from a fex marker
	ConfigMinSize int  // smaller candidates are marker noise, not configs
	FillerRun     int  // consecutive filler bytes that terminate a text block
	FillerFF      bool // whether 0xFF counts as filler (in addition to null)

	PropsWindow  int // max bytes scanned forward from the build.prop marker
	PropsMinSize int
	PropsRun     int // consecutive nulls that terminate the props block

	StringMinLength int // minimum printable run for string extraction
}

// The thresholds of the thorough extractor variant.
func DefaultProfile() *ScanProfile {
	return &ScanProfile{
		BootMaxSize:        64 * 1024 * 1024,
		BootDefaultSize:    16 * 1024 * 1024,
		BootDefaultPage:    2048,
		SparseMaxSize:      1024 * 1024 * 1024,
		SparseDefaultSize:  512 * 1024 * 1024,
		LibraryMinSize:     1000,
		LibraryMaxSize:     50 * 1024 * 1024,
		LibraryDefaultSize: 2 * 1024 * 1024,
		LibraryNameWindow:  10000,
		ConfigWindow:       100000,
		ConfigMinSize:      500,
		FillerRun:          10,
		FillerFF:           false,
		PropsWindow:        20000,
		PropsMinSize:       12,
		PropsRun:           4,
		StringMinLength:    20,
	}
}

// The thresholds of the quick extractor variant: shorter filler runs, much
// smaller minimum config size, and 0xFF counted as filler. Finds more
// candidates at the cost of more false positives.
func LooseProfile() *ScanProfile {
	p := DefaultProfile()
	p.ConfigMinSize = 100
	p.FillerRun = 8
	p.FillerFF = true
	p.PropsRun = 2
	p.PropsWindow = 10000
	return p
}

// Overlay TOML settings onto this profile. Only keys present in the document
// are changed, so a profile file can adjust a single threshold.
func (p *ScanProfile) LoadToml(reader io.Reader) error {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	err = toml.Unmarshal(raw, p)
	if err != nil {
		return fmt.Errorf("couldn't parse profile toml: %s", err)
	}
	return nil
}

// Whether b terminates a text region under this profile.
func (p *ScanProfile) IsFiller(b byte) bool {
	return b == 0 || (p.FillerFF && b == 0xFF)
}

// One artifact located in the image. Offset+Size never exceeds the buffer;
// Size 0 means the artifact was located but its extent is unknown (gzip).
type Artifact struct {
	Kind   string
	Offset int
	Size   int
	Name   string
}

// Given a confirmed pattern match at offset, compute how many bytes belong to
// the artifact and (optionally) a name. Returning ok=false discards the
// candidate entirely, which is how anonymous library headers are dropped.
type EstimateFunc func(data []byte, offset int, p *ScanProfile) (size int, name string, ok bool)

// A recognized byte pattern and the rule for sizing what it marks.
type Signature struct {
	Pattern []byte
	Kind    string
	Stride  int
	// When true the cursor jumps past the estimated extent after a hit.
	// Library blobs echo their own magic internally, so the dense scan must
	// skip them; block-aligned kinds keep probing at the stride instead so an
	// adjacent artifact inside a corrupt header's claimed extent isn't lost.
	SkipPastMatch bool
	Estimate      EstimateFunc
}

var (
	MagicImagewty = []byte("IMAGEWTY")
	MagicBoot     = []byte("ANDROID!")
	MagicSparse   = []byte{0x3a, 0xff, 0x26, 0xed}
	MagicGzip     = []byte{0x1f, 0x8b, 0x08}
	MagicElf      = []byte{0x7f, 'E', 'L', 'F'}
	MagicBootlogo = []byte("bootlogo")
)

// The standard registry, in priority order: when two signatures match at the
// same offset the earlier entry wins.
func DefaultSignatures() []Signature {
	return []Signature{
		{Pattern: MagicBoot, Kind: KindBoot, Stride: BlockStride, Estimate: EstimateBootImage},
		{Pattern: MagicSparse, Kind: KindSparse, Stride: BlockStride, Estimate: EstimateSparseImage},
		{Pattern: MagicGzip, Kind: KindGzip, Stride: BlockStride, Estimate: EstimateUnsized},
		{Pattern: MagicElf, Kind: KindLibrary, Stride: DenseStride, SkipPastMatch: true, Estimate: EstimateLibrary},
	}
}

// Gzip regions are reported located-but-unsized; downstream decides whether
// to carve to the next artifact or ignore them.
func EstimateUnsized(data []byte, offset int, p *ScanProfile) (int, string, bool) {
	return 0, "", true
}
