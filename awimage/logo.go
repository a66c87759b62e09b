package awimage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/mazznoer/csscolorparser"
	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
)

// Bootlogo recovery. The logo is a plain BMP packed near a "bootlogo" name
// reference; the BMP header carries its own file size, so this is the one
// artifact with an exact length field.

const (
	bmpFileSizeIndex = 2
	// How far past the bootlogo token the BMP itself may start
	bootlogoSearchWindow = 64 * 1024
	// A boot logo larger than this is a misparse
	bootlogoMaxSize = 8 * 1024 * 1024
	PreviewWidth    = 256
)

// Locate the boot logo BMP, if the image carries one. The "bootlogo" token
// is a partition name reference; the actual BMP ("BM" header) follows within
// a short window.
func FindBootlogo(data []byte) *Artifact {
	token := bytes.Index(data, MagicBootlogo)
	if token < 0 {
		return nil
	}
	end := token + bootlogoSearchWindow
	if end > len(data) {
		end = len(data)
	}
	offset := token
	for {
		rel := bytes.Index(data[offset:end], []byte("BM"))
		if rel < 0 {
			return nil
		}
		offset += rel
		size, ok := readLE32(data, offset+bmpFileSizeIndex)
		if ok && size > 64 && int(size) <= bootlogoMaxSize && offset+int(size) <= len(data) {
			return &Artifact{
				Kind:   KindBootlogo,
				Offset: offset,
				Size:   int(size),
				Name:   "bootlogo.bmp",
			}
		}
		offset += 2
	}
}

// Decode the carved boot logo bytes as a BMP image.
func DecodeBootlogo(raw []byte) (image.Image, error) {
	img, err := bmp.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("couldn't decode bootlogo bmp: %s", err)
	}
	return img, nil
}

// Render a small two-tone preview of the logo: scaled to the preview width,
// grayscale, then remapped onto the given black and white endpoint colors.
// Format is one of png, gif, bmp.
func RenderLogoPreview(img image.Image, black csscolorparser.Color, white csscolorparser.Color, format string, out io.Writer) error {
	bounds := img.Bounds()
	height := uint(bounds.Dy() * PreviewWidth / bounds.Dx())
	small := resize.Resize(PreviewWidth, height, img, resize.Bilinear)
	gray := imaging.Grayscale(small)

	br, bg, bb, _ := black.RGBA255()
	wr, wg, wb, _ := white.RGBA255()
	tinted := image.NewRGBA(gray.Bounds())
	for y := gray.Bounds().Min.Y; y < gray.Bounds().Max.Y; y++ {
		for x := gray.Bounds().Min.X; x < gray.Bounds().Max.X; x++ {
			// Grayscale pixels all have R==G==B, use R as the level
			level := int(gray.NRGBAAt(x, y).R)
			tinted.SetRGBA(x, y, color.RGBA{
				R: uint8((int(br)*(255-level) + int(wr)*level) / 255),
				G: uint8((int(bg)*(255-level) + int(wg)*level) / 255),
				B: uint8((int(bb)*(255-level) + int(wb)*level) / 255),
				A: 255,
			})
		}
	}

	switch format {
	case "png":
		return png.Encode(out, tinted)
	case "gif":
		return gif.Encode(out, tinted, nil)
	case "bmp":
		return bmp.Encode(out, tinted)
	default:
		return fmt.Errorf("Unknown image format %s", format)
	}
}
