package awimage

import (
	"bytes"
	"sort"
	"strings"
)

// Build metadata recovery: printable string extraction plus the handful of
// well-known version markers that identify what the image was built from.

// Extract every printable ASCII run of at least minLength bytes. Runs that
// fail to decode as ASCII are skipped, not fatal.
func ExtractStrings(data []byte, minLength int) []string {
	result := make([]string, 0)
	start := -1
	for i, b := range data {
		if b >= 32 && b < 127 {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= minLength {
			result = append(result, string(data[start:i]))
		}
		start = -1
	}
	if start >= 0 && len(data)-start >= minLength {
		result = append(result, string(data[start:]))
	}
	return result
}

var interestingTokens = []string{"version", "android", "kernel", "mali", "allwinner", "build"}

// Filter extracted strings down to the ones worth putting in a report,
// sorted and deduplicated.
func InterestingStrings(strs []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0)
	for _, s := range strs {
		lower := strings.ToLower(s)
		for _, token := range interestingTokens {
			if strings.Contains(lower, token) {
				if !seen[s] {
					seen[s] = true
					result = append(result, s)
				}
				break
			}
		}
	}
	sort.Strings(result)
	return result
}

// A WiFi/BT firmware blob located by its chip-name pattern. These blobs
// carry no parseable header, so the offset is advisory and no extent is
// reported.
type FirmwareHit struct {
	Name   string
	Offset int
}

// Chip-name patterns the kernel firmware loaders search for, mapped to the
// filename each blob ships under.
var firmwarePatterns = []struct {
	pattern []byte
	name    string
}{
	{[]byte("xr829"), "xr829.bin"},
	{[]byte("rtl8189"), "rtl8189ftv_fw.bin"},
	{[]byte("rtl8723"), "rtl8723bs_fw.bin"},
	{[]byte("BCM4"), "bcm_wifi.bin"},
	{[]byte("brcmfmac"), "brcmfmac.bin"},
}

// Locate WiFi/BT firmware blobs by chip name. Only the first hit per pattern
// matters; later matches are loader strings referencing the same blob.
func FindFirmware(data []byte) []FirmwareHit {
	hits := make([]FirmwareHit, 0)
	for _, fw := range firmwarePatterns {
		if pos := bytes.Index(data, fw.pattern); pos >= 0 {
			hits = append(hits, FirmwareHit{Name: fw.name, Offset: pos})
		}
	}
	return hits
}

// Version markers located in the raw image. A zero offset with an empty
// string means the marker wasn't found.
type VersionInfo struct {
	Offset int
	Text   string
}

// Everything AnalyzeImage could learn about the build.
type ImageAnalysis struct {
	Uboot    *VersionInfo
	Kernel   *VersionInfo
	Android  *VersionInfo
	Firmware []FirmwareHit
}

// Capture the null-terminated string starting at a marker, capped at max.
func versionAt(data []byte, marker []byte, max int) *VersionInfo {
	pos := bytes.Index(data, marker)
	if pos < 0 {
		return nil
	}
	end := pos + max
	if end > len(data) {
		end = len(data)
	}
	capture := data[pos:end]
	if null := bytes.IndexByte(capture, 0); null >= 0 {
		capture = capture[:null]
	}
	// Strip anything non-ASCII that snuck in before the terminator
	clean := make([]byte, 0, len(capture))
	for _, b := range capture {
		if b >= 32 && b < 127 {
			clean = append(clean, b)
		}
	}
	return &VersionInfo{Offset: pos, Text: string(clean)}
}

// Locate the U-Boot, kernel and Android version strings plus any firmware
// blob patterns in the image.
func AnalyzeImage(data []byte, p *ScanProfile) *ImageAnalysis {
	return &ImageAnalysis{
		Uboot:    versionAt(data, []byte("U-Boot "), 50),
		Kernel:   versionAt(data, []byte("Linux version"), 100),
		Android:  versionAt(data, []byte("ro.build.version.release="), 50),
		Firmware: FindFirmware(data),
	}
}
