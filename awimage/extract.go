package awimage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// The persistence layer: writes a report's byte ranges out to the output
// tree. Binary artifacts are copied exactly as sliced from the buffer; only
// text blocks are normalized. Everything here is best-effort: a failed
// artifact logs a warning and the rest keep going.

// Subdirectories of the output tree.
const (
	FexDirName    = "fex"
	VendorDirName = "vendor_blobs"
)

// The vendor partition skeleton, created even when empty so extracted
// libraries always have a destination and the tree is recognizable.
var vendorSkeleton = []string{
	"lib/egl",
	"lib/hw",
	"lib64/egl",
	"lib64/hw",
	"etc/firmware",
	"etc/wifi",
	"etc/bluetooth",
	"usr/keylayout",
}

// Files written by WriteReport, for the caller's summary output.
type WriteResult struct {
	BootImage string
	Configs   []string
	Props     string
	Libraries []string
	InfoFile  string
	Warnings  int
}

func writeSlice(path string, data []byte) error {
	err := os.WriteFile(path, data, 0644)
	if err != nil {
		return fmt.Errorf("couldn't write %s: %s", path, err)
	}
	return nil
}

// Write every artifact and text block in the report under outdir. The naming
// scheme (boot.img, sys_config_<n>.fex, build.prop, <name>.so under the
// vendor category) is fixed for compatibility with the tooling that consumes
// these trees.
func WriteReport(outdir string, data []byte, report *Report) (*WriteResult, error) {
	result := &WriteResult{}
	warn := func(format string, args ...interface{}) {
		log.Printf("WARN: "+format+"\n", args...)
		result.Warnings++
	}
	if err := os.MkdirAll(outdir, 0770); err != nil {
		return nil, err
	}

	// boot.img: only the first boot artifact; later block-aligned hits are
	// usually re-detections of the same image.
	if boot := report.FirstBoot(); boot != nil && boot.Size > 0 {
		path := filepath.Join(outdir, "boot.img")
		if err := writeSlice(path, data[boot.Offset:boot.Offset+boot.Size]); err != nil {
			warn("%s", err)
		} else {
			result.BootImage = path
			log.Printf("Extracted boot.img (%d bytes at 0x%08x)\n", boot.Size, boot.Offset)
		}
	}

	// FEX configurations, numbered in discovery order
	if len(report.Configs) > 0 {
		fexdir := filepath.Join(outdir, FexDirName)
		if err := os.MkdirAll(fexdir, 0770); err != nil {
			warn("couldn't create fex dir: %s", err)
		} else {
			for i, block := range report.Configs {
				path := filepath.Join(fexdir, fmt.Sprintf("sys_config_%d.fex", i))
				if err := writeSlice(path, NormalizeConfig(block.Slice(data))); err != nil {
					warn("%s", err)
					continue
				}
				result.Configs = append(result.Configs, path)
				log.Printf("Saved %s (%d bytes)\n", path, block.Size())
			}
		}
	}

	// build.prop, newline-normalized
	if report.Props != nil {
		path := filepath.Join(outdir, "build.prop")
		if err := writeSlice(path, NormalizeProps(report.Props.Slice(data))); err != nil {
			warn("%s", err)
		} else {
			result.Props = path
			log.Printf("Saved build.prop (%d bytes)\n", report.Props.Size())
		}
	}

	// Libraries routed into the vendor skeleton by name
	vendordir := filepath.Join(outdir, VendorDirName)
	for _, dir := range vendorSkeleton {
		if err := os.MkdirAll(filepath.Join(vendordir, dir), 0770); err != nil {
			warn("couldn't create vendor dir %s: %s", dir, err)
		}
	}
	for _, lib := range report.Libraries() {
		if lib.Name == "" || lib.Size <= 0 {
			continue
		}
		path := filepath.Join(vendordir, ClassifyLibrary(lib.Name), lib.Name)
		if err := writeSlice(path, data[lib.Offset:lib.Offset+lib.Size]); err != nil {
			warn("%s", err)
			continue
		}
		result.Libraries = append(result.Libraries, path)
		log.Printf("Extracted %s (~%d bytes at 0x%08x)\n", lib.Name, lib.Size, lib.Offset)
	}

	// Analysis report
	if report.Analysis != nil {
		path := filepath.Join(outdir, "image_info.txt")
		if err := writeSlice(path, []byte(FormatAnalysis(data, report))); err != nil {
			warn("%s", err)
		} else {
			result.InfoFile = path
		}
	}

	return result, nil
}

// Render the human-readable structure analysis written next to the
// extracted files.
func FormatAnalysis(data []byte, report *Report) string {
	out := "=== Allwinner Image Analysis ===\n\n"
	out += fmt.Sprintf("Size: %d bytes\n", len(data))
	if report.Header != nil {
		out += fmt.Sprintf("IMAGEWTY version: %d, items: %d\n",
			report.Header.Version, report.Header.ItemCount)
	}
	a := report.Analysis
	if a != nil {
		if a.Uboot != nil {
			out += fmt.Sprintf("\nU-Boot found at: 0x%08x\n%s\n", a.Uboot.Offset, a.Uboot.Text)
		}
		if a.Kernel != nil {
			out += fmt.Sprintf("\nKernel found at: 0x%08x\n%s\n", a.Kernel.Offset, a.Kernel.Text)
		}
		if a.Android != nil {
			out += fmt.Sprintf("\nAndroid version info at: 0x%08x\n%s\n", a.Android.Offset, a.Android.Text)
		}
		if len(a.Firmware) > 0 {
			out += "\n=== Firmware patterns ===\n"
			for _, fw := range a.Firmware {
				out += fmt.Sprintf("%-20s 0x%08x\n", fw.Name, fw.Offset)
			}
		}
	}
	out += "\n=== Artifacts ===\n"
	for _, art := range report.Artifacts {
		name := art.Name
		if name == "" {
			name = art.Kind
		}
		out += fmt.Sprintf("%-10s 0x%08x %12d  %s\n", art.Kind, art.Offset, art.Size, name)
	}
	return out
}
