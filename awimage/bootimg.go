package awimage

const (
	// Android boot image header field offsets (all little endian uint32,
	// relative to the "ANDROID!" magic)
	bootKernelSizeIndex  = 8
	bootRamdiskSizeIndex = 16
	bootSecondSizeIndex  = 24
	bootPageSizeIndex    = 36
)

// The header fields needed to size a boot image. Only the length-bearing
// fields are parsed; ids, load addresses and the command line don't affect
// the extent.
type BootHeader struct {
	KernelSize  uint32
	RamdiskSize uint32
	SecondSize  uint32
	PageSize    uint32
}

// Parse the sizing fields of an Android boot image header at offset. A false
// return means the buffer was too short to hold the header.
func ParseBootHeader(data []byte, offset int) (*BootHeader, bool) {
	kernel, ok1 := readLE32(data, offset+bootKernelSizeIndex)
	ramdisk, ok2 := readLE32(data, offset+bootRamdiskSizeIndex)
	second, ok3 := readLE32(data, offset+bootSecondSizeIndex)
	page, ok4 := readLE32(data, offset+bootPageSizeIndex)
	if !(ok1 && ok2 && ok3 && ok4) {
		return nil, false
	}
	return &BootHeader{
		KernelSize:  kernel,
		RamdiskSize: ramdisk,
		SecondSize:  second,
		PageSize:    page,
	}, true
}

// Total extent: one header page plus each payload rounded up to a page
// multiple. A zero page size field means the image was built with the old
// default of 2048.
func (h *BootHeader) Extent(p *ScanProfile) int {
	page := int(h.PageSize)
	if page == 0 {
		page = p.BootDefaultPage
	}
	total := page
	total += int(AlignWidth(uint(h.KernelSize), uint(page)))
	total += int(AlignWidth(uint(h.RamdiskSize), uint(page)))
	total += int(AlignWidth(uint(h.SecondSize), uint(page)))
	if total > p.BootMaxSize {
		total = p.BootMaxSize
	}
	return total
}

// Extent estimator for the boot image signature. Unreadable header fields
// fall back to the profile's fixed default rather than failing the scan.
func EstimateBootImage(data []byte, offset int, p *ScanProfile) (int, string, bool) {
	header, ok := ParseBootHeader(data, offset)
	if !ok {
		return p.BootDefaultSize, "", true
	}
	return header.Extent(p), "", true
}
