package awimage

import (
	"encoding/binary"
)

// Builders for the synthetic firmware buffers used across the package tests.
// Real vendor images are far too large to check in, and every property we
// test is defined purely by header fields we can craft.

// A buffer of the given size filled with 0xAA, which is neither filler nor
// printable, so it can't accidentally form text blocks or strings.
func makeNoise(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = 0xAA
	}
	return data
}

func putLE32(data []byte, index int, value uint32) {
	binary.LittleEndian.PutUint32(data[index:index+4], value)
}

func putLE16(data []byte, index int, value uint16) {
	binary.LittleEndian.PutUint16(data[index:index+2], value)
}

func putLE64(data []byte, index int, value uint64) {
	binary.LittleEndian.PutUint64(data[index:index+8], value)
}

// An Android boot image header with the given sizing fields.
func makeBootHeader(kernel uint32, ramdisk uint32, second uint32, page uint32) []byte {
	header := make([]byte, 64)
	copy(header, MagicBoot)
	putLE32(header, bootKernelSizeIndex, kernel)
	putLE32(header, bootRamdiskSizeIndex, ramdisk)
	putLE32(header, bootSecondSizeIndex, second)
	putLE32(header, bootPageSizeIndex, page)
	return header
}

// A sparse image header with the given block geometry.
func makeSparseHeader(blockSize uint32, totalBlocks uint32) []byte {
	header := make([]byte, 28)
	copy(header, MagicSparse)
	putLE32(header, sparseBlockSizeIndex, blockSize)
	putLE32(header, sparseTotalBlocksIndex, totalBlocks)
	return header
}

// A 64 bit ELF header with the given type and section header table
// geometry. The returned slice is only the header; tests embed it in a
// larger buffer and place a library name in the window themselves.
func makeElf64Header(elfType uint16, shOff uint64, shEntSize uint16, shNum uint16) []byte {
	header := make([]byte, 64)
	copy(header, MagicElf)
	header[elfClassIndex] = 2
	putLE16(header, elfTypeIndex, elfType)
	putLE64(header, elf64ShOffIndex, shOff)
	putLE16(header, elf64ShEntSizeIndex, shEntSize)
	putLE16(header, elf64ShNumIndex, shNum)
	return header
}

// Same, 32 bit class.
func makeElf32Header(elfType uint16, shOff uint32, shEntSize uint16, shNum uint16) []byte {
	header := make([]byte, 52)
	copy(header, MagicElf)
	header[elfClassIndex] = 1
	putLE16(header, elfTypeIndex, elfType)
	putLE32(header, elf32ShOffIndex, shOff)
	putLE16(header, elf32ShEntSizeIndex, shEntSize)
	putLE16(header, elf32ShNumIndex, shNum)
	return header
}

// An IMAGEWTY container header.
func makeImagewtyHeader(version uint32, imageSize uint32, itemCount uint32) []byte {
	header := make([]byte, ImagewtyHeaderSize)
	copy(header, MagicImagewty)
	putLE32(header, imagewtyVersionIndex, version)
	putLE32(header, imagewtyHeaderSizeIndex, ImagewtyHeaderSize)
	putLE32(header, imagewtyImageSizeIndex, imageSize)
	putLE32(header, imagewtyItemCountIndex, itemCount)
	return header
}

// Fill data[offset:] with printable bytes (cycling letters), for building
// text regions of exact lengths.
func fillPrintable(data []byte, offset int, length int) {
	for i := 0; i < length; i++ {
		data[offset+i] = byte('a' + i%26)
	}
}
