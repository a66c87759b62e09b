package awimage

import (
	"fmt"
)

const (
	ImagewtyHeaderSize = 0x400

	imagewtyVersionIndex    = 8
	imagewtyHeaderSizeIndex = 12
	imagewtyImageSizeIndex  = 16
	imagewtyItemCountIndex  = 0x38
)

// The fields we care about from the IMAGEWTY container header. The header is
// advisory for extraction: scanning works the same without it.
type ImagewtyHeader struct {
	Version    uint32
	HeaderSize uint32
	ImageSize  uint32
	ItemCount  uint32
}

// The buffer doesn't start with the IMAGEWTY magic.
type NotImageError struct{}

func (e *NotImageError) Error() string {
	return fmt.Sprintf("Buffer doesn't begin with %s magic", MagicImagewty)
}

// The buffer is too short for the structure being parsed.
type NotEnoughDataError struct {
	Expected int
	Got      int
}

func (e *NotEnoughDataError) Error() string {
	return fmt.Sprintf("Not enough data: expected %d, got %d", e.Expected, e.Got)
}

// Parse the top-level IMAGEWTY header. A NotImageError is non-fatal to
// callers: the extractor warns and continues with signature scanning only.
func ParseImagewtyHeader(data []byte) (*ImagewtyHeader, error) {
	if !hasPattern(data, 0, MagicImagewty) {
		return nil, &NotImageError{}
	}
	if len(data) < ImagewtyHeaderSize {
		return nil, &NotEnoughDataError{Expected: ImagewtyHeaderSize, Got: len(data)}
	}
	version, _ := readLE32(data, imagewtyVersionIndex)
	headerSize, _ := readLE32(data, imagewtyHeaderSizeIndex)
	imageSize, _ := readLE32(data, imagewtyImageSizeIndex)
	itemCount, _ := readLE32(data, imagewtyItemCountIndex)
	return &ImagewtyHeader{
		Version:    version,
		HeaderSize: headerSize,
		ImageSize:  imageSize,
		ItemCount:  itemCount,
	}, nil
}
