package awimage

import (
	"bytes"
	"strings"
)

const (
	elfClassIndex = 4  // 1 = 32 bit, 2 = 64 bit
	elfTypeIndex  = 16 // LE16 object type
	elfTypeDyn    = 3  // ET_DYN: dynamically loadable shared object

	// 32 bit header field offsets
	elf32ShOffIndex     = 32
	elf32ShEntSizeIndex = 46
	elf32ShNumIndex     = 48
	// 64 bit header field offsets
	elf64ShOffIndex     = 40
	elf64ShEntSizeIndex = 58
	elf64ShNumIndex     = 60
)

// Vendor libraries we know how to name. Order matters: more specific names
// come before their prefixes so the first window hit is the right one.
var KnownLibraryNames = []string{
	"libGLES_mali.so",
	"libMali.so",
	"libUMP.so",
	"gralloc.sun8i.so",
	"gralloc.sun50i.so",
	"hwcomposer.sun8i.so",
	"hwcomposer.sun50i.so",
	"libcedarc.so",
	"libcedarx.so",
	"libcdc_base.so",
	"libcdc_vd_h264.so",
	"libcdc_vd_h265.so",
	"libcdc_vd_mpeg2.so",
	"libcdc_vd_mpeg4.so",
	"libVE.so",
	"libMemAdapter.so",
	"libvdecoder.so",
	"libvencoder.so",
	"audio.primary.sun8i.so",
}

// Whether the ELF image at offset declares itself a shared object. Static
// executables, relocatables and core dumps are not carved.
func IsDynamicLibrary(data []byte, offset int) bool {
	typ, ok := readLE16(data, offset+elfTypeIndex)
	return ok && typ == elfTypeDyn
}

// Compute the file extent from the section header table: its offset plus
// entry size times entry count. The class byte selects the field layout.
// A false return means the header fields couldn't be read at all.
func elfTableExtent(data []byte, offset int) (int, bool) {
	class := byte(0)
	if offset+elfClassIndex < len(data) {
		class = data[offset+elfClassIndex]
	}
	if class == 2 {
		shOff, ok1 := readLE64(data, offset+elf64ShOffIndex)
		entSize, ok2 := readLE16(data, offset+elf64ShEntSizeIndex)
		num, ok3 := readLE16(data, offset+elf64ShNumIndex)
		if !(ok1 && ok2 && ok3) {
			return 0, false
		}
		return int(shOff) + int(entSize)*int(num), true
	}
	shOff, ok1 := readLE32(data, offset+elf32ShOffIndex)
	entSize, ok2 := readLE16(data, offset+elf32ShEntSizeIndex)
	num, ok3 := readLE16(data, offset+elf32ShNumIndex)
	if !(ok1 && ok2 && ok3) {
		return 0, false
	}
	return int(shOff) + int(entSize)*int(num), true
}

// Look for any known vendor library name in a bounded window after the
// header. The dynamic string table always sits near the front of these
// blobs, so the window is small. Empty return means no name was found.
func InferLibraryName(data []byte, offset int, p *ScanProfile) string {
	end := offset + p.LibraryNameWindow
	if end > len(data) {
		end = len(data)
	}
	window := data[offset:end]
	for _, name := range KnownLibraryNames {
		if bytes.Contains(window, []byte(name)) {
			return name
		}
	}
	return ""
}

// Extent estimator for shared library headers. Candidates that are not
// ET_DYN or whose name can't be inferred are discarded: an anonymous blob
// isn't actionable, and non-library ELF hits are almost always noise from
// kernels or executables embedded in the image.
func EstimateLibrary(data []byte, offset int, p *ScanProfile) (int, string, bool) {
	if !IsDynamicLibrary(data, offset) {
		return 0, "", false
	}
	name := InferLibraryName(data, offset, p)
	if name == "" {
		return 0, "", false
	}
	size, ok := elfTableExtent(data, offset)
	if !ok || size < p.LibraryMinSize || size > p.LibraryMaxSize {
		size = p.LibraryDefaultSize
	}
	return size, name, true
}

// Destination categories for extracted libraries, mirroring the Android
// vendor partition layout.
const (
	CategoryEgl     = "lib/egl"
	CategoryHw      = "lib/hw"
	CategoryGeneric = "lib"
)

var (
	eglTokens = []string{"egl", "gles"}
	hwTokens  = []string{"gralloc", "hwcomposer", "audio"}
)

// Route a library to its vendor directory by name substring. Unmatched names
// always fall through to the generic category; there is no failure mode.
func ClassifyLibrary(name string) string {
	lower := strings.ToLower(name)
	for _, token := range eglTokens {
		if strings.Contains(lower, token) {
			return CategoryEgl
		}
	}
	for _, token := range hwTokens {
		if strings.Contains(lower, token) {
			return CategoryHw
		}
	}
	return CategoryGeneric
}
