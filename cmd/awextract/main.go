package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/mazznoer/csscolorparser"

	"github.com/xtrack33/awextract/awimage"
)

const (
	AppVersion = "0.3.0"
)

// Quick way to fail on error, since most commands are "doing" something on
// behalf of something else.
func fatalIfErr(subject string, doing string, err error) {
	if err != nil {
		log.Fatalf("%s - Couldn't %s: %s", subject, doing, err)
	}
}

// Load the whole firmware image into memory. The scan runs over a single in
// memory buffer; multi-gigabyte images need as much RAM.
func loadImage(path string) []byte {
	data, err := os.ReadFile(path)
	fatalIfErr(path, "read image", err)
	log.Printf("Image size: %d bytes (%.1f MB)\n", len(data), float64(len(data))/1024/1024)
	return data
}

func forceCreate(fp string) *os.File {
	f, err := os.Create(fp)
	fatalIfErr(fp, "create write file", err)
	return f
}

// Profile selection shared by the scanning commands.
type ProfileFlags struct {
	Profile string `type:"existingfile" help:"TOML file overriding scan thresholds"`
	Loose   bool   `help:"Use the loose thresholds (more candidates, more noise)"`
}

func (pf *ProfileFlags) Load() *awimage.ScanProfile {
	profile := awimage.DefaultProfile()
	if pf.Loose {
		profile = awimage.LooseProfile()
	}
	if pf.Profile != "" {
		file, err := os.Open(pf.Profile)
		fatalIfErr(pf.Profile, "open profile", err)
		defer file.Close()
		err = profile.LoadToml(file)
		fatalIfErr(pf.Profile, "parse profile", err)
		log.Printf("Loaded scan profile overrides from %s\n", pf.Profile)
	}
	return profile
}

// Warn (don't fail) when the container magic is missing; extraction is
// signature-driven and works either way.
func reportHeader(report *awimage.Report, path string) {
	if report.Header == nil {
		log.Printf("Warning: %s is not a valid IMAGEWTY image, using signature scan only\n", path)
	} else {
		log.Printf("IMAGEWTY header version %d, %d items\n",
			report.Header.Version, report.Header.ItemCount)
	}
}

// **********************************
// *       IMAGE COMMANDS           *
// **********************************

// Full extraction command (the main event)
type ExtractCmd struct {
	Image    string       `arg:"" type:"existingfile" help:"The firmware image to extract"`
	Outdir   string       `arg:"" optional:"" default:"extracted" help:"Destination directory"`
	Profiles ProfileFlags `embed:""`
}

func (c *ExtractCmd) Run() error {
	data := loadImage(c.Image)
	profile := c.Profiles.Load()
	report := awimage.ScanImage(data, profile)
	reportHeader(report, c.Image)
	log.Printf("Scan found %d artifacts, %d configs\n", len(report.Artifacts), len(report.Configs))
	written, err := awimage.WriteReport(c.Outdir, data, report)
	fatalIfErr(c.Outdir, "write extraction output", err)
	result := make(map[string]interface{})
	result["Image"] = c.Image
	result["Outdir"] = c.Outdir
	result["BootImage"] = written.BootImage
	result["Configs"] = written.Configs
	result["BuildProp"] = written.Props
	result["Libraries"] = written.Libraries
	result["InfoFile"] = written.InfoFile
	result["Warnings"] = written.Warnings
	PrintJson(result)
	return nil
}

// Scan command: report only, write nothing
type ScanCmd struct {
	Image    string       `arg:"" type:"existingfile" help:"The firmware image to scan"`
	Profiles ProfileFlags `embed:""`
}

func (c *ScanCmd) Run() error {
	data := loadImage(c.Image)
	report := awimage.ScanImage(data, c.Profiles.Load())
	reportHeader(report, c.Image)
	log.Printf("Scan found %d artifacts, %d configs\n", len(report.Artifacts), len(report.Configs))
	PrintJson(report)
	return nil
}

// Analyze command: just the version/structure info
type AnalyzeCmd struct {
	Image    string       `arg:"" type:"existingfile" help:"The firmware image to analyze"`
	Profiles ProfileFlags `embed:""`
}

func (c *AnalyzeCmd) Run() error {
	data := loadImage(c.Image)
	profile := c.Profiles.Load()
	result := make(map[string]interface{})
	header, err := awimage.ParseImagewtyHeader(data)
	if err != nil {
		log.Printf("Warning: %s\n", err)
	} else {
		result["Header"] = header
	}
	result["Analysis"] = awimage.AnalyzeImage(data, profile)
	result["Image"] = c.Image
	result["Size"] = len(data)
	PrintJson(result)
	return nil
}

// Strings command
type StringsCmd struct {
	Image     string `arg:"" type:"existingfile" help:"The firmware image to pull strings from"`
	MinLength int    `default:"20" help:"Minimum printable run length"`
	All       bool   `help:"Dump all strings, not just the interesting ones"`
}

func (c *StringsCmd) Run() error {
	data := loadImage(c.Image)
	strs := awimage.ExtractStrings(data, c.MinLength)
	if !c.All {
		strs = awimage.InterestingStrings(strs)
	}
	log.Printf("Extracted %d strings\n", len(strs))
	for _, s := range strs {
		fmt.Println(s)
	}
	return nil
}

// Fex command: list or extract just the configuration blocks
type FexCmd struct {
	Image    string       `arg:"" type:"existingfile" help:"The firmware image to search"`
	Outdir   string       `short:"o" help:"Write the blocks here instead of printing offsets"`
	Profiles ProfileFlags `embed:""`
}

func (c *FexCmd) Run() error {
	data := loadImage(c.Image)
	profile := c.Profiles.Load()
	blocks := awimage.ExtractConfigBlocks(data, profile)
	log.Printf("Found %d configuration blocks\n", len(blocks))
	if c.Outdir == "" {
		PrintJson(blocks)
		return nil
	}
	err := os.MkdirAll(c.Outdir, 0770)
	fatalIfErr(c.Outdir, "create output folder", err)
	result := make(map[string]interface{})
	written := make([]string, 0)
	for i, block := range blocks {
		path := filepath.Join(c.Outdir, fmt.Sprintf("sys_config_%d.fex", i))
		err = os.WriteFile(path, awimage.NormalizeConfig(block.Slice(data)), 0644)
		fatalIfErr(path, "write config", err)
		written = append(written, path)
	}
	result["Image"] = c.Image
	result["Configs"] = written
	PrintJson(result)
	return nil
}

// Bootlogo preview command
type BootlogoCmd struct {
	Image   string `arg:"" type:"existingfile" help:"The firmware image to search"`
	Outfile string `type:"path" short:"o"`
	Format  string `enum:"png,gif,bmp" default:"png" help:"Image output format"`
	Black   string `default:"#000000" help:"Color to use for black"`
	White   string `default:"#FFFFFF" help:"Color to use for white"`
}

func (c *BootlogoCmd) Run() error {
	if c.Outfile == "" {
		c.Outfile = fmt.Sprintf("bootlogo_%s.%s", FileSafeDateTime(), c.Format)
	}
	data := loadImage(c.Image)
	logo := awimage.FindBootlogo(data)
	if logo == nil {
		log.Fatalf("No bootlogo found in %s", c.Image)
	}
	log.Printf("Found bootlogo at 0x%08x (%d bytes)\n", logo.Offset, logo.Size)
	img, err := awimage.DecodeBootlogo(data[logo.Offset : logo.Offset+logo.Size])
	fatalIfErr(c.Image, "decode bootlogo", err)
	black, err := csscolorparser.Parse(c.Black)
	fatalIfErr("bootlogo", "parse black color", err)
	white, err := csscolorparser.Parse(c.White)
	fatalIfErr("bootlogo", "parse white color", err)
	outfile := forceCreate(c.Outfile)
	defer outfile.Close()
	err = awimage.RenderLogoPreview(img, black, white, c.Format, outfile)
	fatalIfErr(c.Outfile, "render preview", err)
	result := make(map[string]interface{})
	result["Image"] = c.Image
	result["Outfile"] = c.Outfile
	result["Offset"] = logo.Offset
	result["Size"] = logo.Size
	PrintJson(result)
	return nil
}

// **********************************
// *       SCRIPT COMMANDS          *
// **********************************

type ScriptCmd struct {
	Image    string       `arg:"" type:"existingfile" help:"The firmware image to run against"`
	Infile   string       `arg:"" default:"extract.lua" help:"The lua extraction script"`
	Outdir   string       `short:"o" default:"extracted" help:"Folder scripts save into"`
	Profiles ProfileFlags `embed:""`
}

func (c *ScriptCmd) Run() error {
	script, err := os.ReadFile(c.Infile)
	fatalIfErr(c.Infile, "read script file", err)
	data := loadImage(c.Image)
	written, err := awimage.RunLuaExtractor(string(script), data, c.Outdir, c.Profiles.Load())
	fatalIfErr(c.Infile, "run extraction script", err)
	log.Printf("Script wrote %d files\n", len(written))
	result := make(map[string]interface{})
	result["Image"] = c.Image
	result["Script"] = c.Infile
	result["Written"] = written
	PrintJson(result)
	return nil
}

// **********************************
// *       CONVERT COMMANDS         *
// **********************************

type Bin2HexCmd struct {
	Outfile string `type:"path" short:"o"`
	Infile  string `type:"existingfile" default:"blob.bin" short:"i"`
	Base    uint32 `help:"Base address for the hex records"`
}

func (c *Bin2HexCmd) Run() error {
	if c.Outfile == "" {
		c.Outfile = fmt.Sprintf("blob_bin2hex_%s.hex", FileSafeDateTime())
	}
	raw, err := os.ReadFile(c.Infile)
	fatalIfErr("bin2hex", "read bin file", err)
	dest := forceCreate(c.Outfile)
	defer dest.Close()
	err = awimage.BinToHex(raw, c.Base, dest)
	fatalIfErr("bin2hex", "convert bin", err)
	result := make(map[string]interface{})
	result["Infile"] = c.Infile
	result["Outfile"] = c.Outfile
	result["Length"] = len(raw)
	result["Base"] = c.Base
	PrintJson(result)
	return nil
}

type Hex2BinCmd struct {
	Outfile string `type:"path" short:"o"`
	Infile  string `type:"existingfile" default:"blob.hex" short:"i"`
}

func (c *Hex2BinCmd) Run() error {
	if c.Outfile == "" {
		c.Outfile = fmt.Sprintf("blob_hex2bin_%s.bin", FileSafeDateTime())
	}
	hexfile, err := os.Open(c.Infile)
	fatalIfErr(c.Infile, "open hex file", err)
	defer hexfile.Close()
	raw, base, err := awimage.HexToBin(hexfile)
	fatalIfErr("hex2bin", "convert hex", err)
	log.Printf("Hex real data length is %d\n", len(raw))
	err = os.WriteFile(c.Outfile, raw, 0644)
	fatalIfErr(c.Outfile, "write bin file", err)
	result := make(map[string]interface{})
	result["Infile"] = c.Infile
	result["Outfile"] = c.Outfile
	result["Length"] = len(raw)
	result["Base"] = base
	PrintJson(result)
	return nil
}

// **********************************
// *    ALL TOGETHER COMMANDS       *
// **********************************

var cli struct {
	Extract  ExtractCmd  `cmd:"" help:"Extract everything recognizable from a firmware image"`
	Scan     ScanCmd     `cmd:"" help:"Scan a firmware image and report artifacts without writing files"`
	Analyze  AnalyzeCmd  `cmd:"" help:"Report header and version info for a firmware image"`
	Strings  StringsCmd  `cmd:"" help:"Pull printable strings from a firmware image"`
	Fex      FexCmd      `cmd:"" help:"Find (and optionally extract) FEX configuration blocks"`
	Bootlogo BootlogoCmd `cmd:"" help:"Find the boot logo and render a preview image"`
	Script   ScriptCmd   `cmd:"" help:"Run a lua extraction script against a firmware image"`
	Convert  struct {
		Bin2Hex Bin2HexCmd `cmd:"" help:"Convert a carved blob to Intel HEX" name:"bin2hex"`
		Hex2Bin Hex2BinCmd `cmd:"" help:"Convert Intel HEX back to a raw blob" name:"hex2bin"`
	} `cmd:"" help:"Commands converting carved blobs between formats"`
	Version kong.VersionFlag `help:"Show version information"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("awextract"),
		kong.ShortUsageOnError(),
		kong.Description("A set of tools for digging artifacts out of Allwinner IMAGEWTY firmware images"),
		kong.Vars{
			"version": AppVersion,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
