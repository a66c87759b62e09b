package awimage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteReport(t *testing.T) {
	data := makeNoise(65536)
	copy(data[0:], makeBootHeader(2048, 0, 0, 2048)) // extent 4096
	copy(data[4096:], "[product]")
	fillPrintable(data, 4105, 600)
	for i := 0; i < 12; i++ {
		data[4705+i] = 0
	}
	copy(data[8192:], "ro.build.id=LMY47V")
	data[8210] = 0
	copy(data[8211:], "ro.build.version.release=4.4.2")
	for i := 0; i < 4; i++ {
		data[8241+i] = 0
	}
	copy(data[24576:], makeElf64Header(3, 2000, 64, 10)) // extent 2640
	copy(data[24576+100:], "gralloc.sun8i.so")

	outdir := filepath.Join(t.TempDir(), "extracted")
	report := ScanImage(data, DefaultProfile())
	result, err := WriteReport(outdir, data, report)
	if err != nil {
		t.Fatalf("Unexpected write error: %s", err)
	}
	if result.Warnings != 0 {
		t.Fatalf("Expected no warnings, got %d", result.Warnings)
	}

	// boot.img is a byte exact copy of the carved extent
	bootRaw, err := os.ReadFile(result.BootImage)
	if err != nil {
		t.Fatalf("Couldn't read boot image: %s", err)
	}
	if !bytes.Equal(bootRaw, data[0:4096]) {
		t.Fatalf("boot.img doesn't match the carved extent")
	}

	if len(result.Configs) != 1 {
		t.Fatalf("Expected 1 config file, got %d", len(result.Configs))
	}
	if filepath.Base(result.Configs[0]) != "sys_config_0.fex" {
		t.Fatalf("Unexpected config filename: %s", result.Configs[0])
	}

	// build.prop has its null separators rewritten to newlines
	propsRaw, err := os.ReadFile(result.Props)
	if err != nil {
		t.Fatalf("Couldn't read build.prop: %s", err)
	}
	if !strings.Contains(string(propsRaw), "ro.build.id=LMY47V\nro.build.version.release=4.4.2") {
		t.Fatalf("Unexpected build.prop content: %q", propsRaw)
	}

	// The gralloc library routes into the hw category
	if len(result.Libraries) != 1 {
		t.Fatalf("Expected 1 library, got %d", len(result.Libraries))
	}
	expected := filepath.Join(outdir, VendorDirName, CategoryHw, "gralloc.sun8i.so")
	if result.Libraries[0] != expected {
		t.Fatalf("Expected library at %s, got %s", expected, result.Libraries[0])
	}
	libRaw, err := os.ReadFile(result.Libraries[0])
	if err != nil {
		t.Fatalf("Couldn't read library: %s", err)
	}
	if len(libRaw) != 2640 {
		t.Fatalf("Expected 2640 library bytes, got %d", len(libRaw))
	}

	if result.InfoFile == "" {
		t.Fatalf("Expected an analysis file")
	}
}

func TestWriteReport_EmptyReport(t *testing.T) {
	outdir := filepath.Join(t.TempDir(), "extracted")
	result, err := WriteReport(outdir, makeNoise(1024), &Report{Analysis: &ImageAnalysis{}})
	if err != nil {
		t.Fatalf("Unexpected write error: %s", err)
	}
	if result.BootImage != "" || result.Props != "" || len(result.Configs) != 0 {
		t.Fatalf("Expected nothing extracted, got %v", result)
	}
	// The vendor skeleton is created even when no libraries were found
	if _, err := os.Stat(filepath.Join(outdir, VendorDirName, "lib", "egl")); err != nil {
		t.Fatalf("Expected vendor skeleton: %s", err)
	}
}

func TestFormatAnalysis(t *testing.T) {
	report := &Report{
		Artifacts: []Artifact{
			{Kind: KindBoot, Offset: 512, Size: 4096},
			{Kind: KindLibrary, Offset: 8192, Size: 2048, Name: "libUMP.so"},
		},
		Header: &ImagewtyHeader{Version: 0x300, ItemCount: 7},
		Analysis: &ImageAnalysis{
			Uboot:    &VersionInfo{Offset: 100, Text: "U-Boot 2014.07"},
			Firmware: []FirmwareHit{{Name: "xr829.bin", Offset: 0x4000}},
		},
	}
	out := FormatAnalysis(makeNoise(1024), report)
	for _, want := range []string{"items: 7", "U-Boot 2014.07", "libUMP.so", "0x00000200", "xr829.bin", "0x00004000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("Expected %q in the analysis output:\n%s", want, out)
		}
	}
}
