package awimage

const (
	// Sparse header: magic(4) version(4) header_size(2) chunk_header_size(2)
	// block_size(4) total_blocks(4) total_chunks(4)
	sparseBlockSizeIndex   = 12
	sparseTotalBlocksIndex = 16
)

// Extent estimator for a sparse filesystem image: the unpacked block count
// times the block size, clamped to the profile ceiling. Unreadable fields
// fall back to the fixed default.
func EstimateSparseImage(data []byte, offset int, p *ScanProfile) (int, string, bool) {
	blockSize, ok1 := readLE32(data, offset+sparseBlockSizeIndex)
	totalBlocks, ok2 := readLE32(data, offset+sparseTotalBlocksIndex)
	if !ok1 || !ok2 {
		return p.SparseDefaultSize, "", true
	}
	size := int64(blockSize) * int64(totalBlocks)
	if size > int64(p.SparseMaxSize) {
		size = int64(p.SparseMaxSize)
	}
	return int(size), "", true
}
