package awimage

// The scan engine: walks the loaded image at signature-specific strides and
// asks each matching signature's estimator for an extent. The whole engine is
// synchronous and stateless; for a fixed buffer and profile the report is
// fully deterministic.

// The engine's sole output: everything discovered in one scan, in discovery
// order (ascending offset within each stride pass, no global sort).
type Report struct {
	Artifacts []Artifact
	Configs   []TextBlock
	Props     *TextBlock
	Analysis  *ImageAnalysis
	Header    *ImagewtyHeader
}

// Group signatures by stride, preserving registry order within a group and
// the order in which strides first appear.
func strideGroups(sigs []Signature) [][]Signature {
	var order []int
	groups := make(map[int][]Signature)
	for _, sig := range sigs {
		if _, seen := groups[sig.Stride]; !seen {
			order = append(order, sig.Stride)
		}
		groups[sig.Stride] = append(groups[sig.Stride], sig)
	}
	result := make([][]Signature, 0, len(order))
	for _, stride := range order {
		result = append(result, groups[stride])
	}
	return result
}

// Scan the buffer against the registry and return every artifact found.
// Signatures sharing a stride are probed together in one pass; at a given
// cursor position the first matching signature in registry order wins.
// Estimated sizes are always clamped so Offset+Size fits the buffer.
func ScanArtifacts(data []byte, sigs []Signature, p *ScanProfile) []Artifact {
	artifacts := make([]Artifact, 0)
	for _, group := range strideGroups(sigs) {
		stride := group[0].Stride
		for offset := 0; offset < len(data); {
			advance := stride
			for _, sig := range group {
				if !hasPattern(data, offset, sig.Pattern) {
					continue
				}
				size, name, ok := sig.Estimate(data, offset, p)
				if ok {
					size = clampToBuffer(data, offset, size)
					artifacts = append(artifacts, Artifact{
						Kind:   sig.Kind,
						Offset: offset,
						Size:   size,
						Name:   name,
					})
					if sig.SkipPastMatch && size > 0 {
						// Jump past the carved extent, keeping stride
						// alignment, so interior bytes echoing the magic
						// don't re-trigger on the same blob.
						advance = int(AlignWidth(uint(size), uint(stride)))
					}
				}
				break
			}
			offset += advance
		}
	}
	return artifacts
}

// Run the full engine over a loaded image: the top-level header (advisory),
// the signature scan, both text block extractions and the version analysis.
func ScanImage(data []byte, p *ScanProfile) *Report {
	report := &Report{
		Artifacts: ScanArtifacts(data, DefaultSignatures(), p),
		Configs:   ExtractConfigBlocks(data, p),
		Props:     ExtractPropsBlock(data, p),
		Analysis:  AnalyzeImage(data, p),
	}
	// The formal header is advisory: most images carry it, but extraction is
	// purely signature-driven when it's absent.
	header, err := ParseImagewtyHeader(data)
	if err == nil {
		report.Header = header
	}
	return report
}

// The first boot image in the report, or nil. Only the first is extracted as
// boot.img; later hits at block-aligned offsets are usually re-detections.
func (r *Report) FirstBoot() *Artifact {
	for i := range r.Artifacts {
		if r.Artifacts[i].Kind == KindBoot {
			return &r.Artifacts[i]
		}
	}
	return nil
}

// All library artifacts, in discovery order.
func (r *Report) Libraries() []Artifact {
	libs := make([]Artifact, 0)
	for _, a := range r.Artifacts {
		if a.Kind == KindLibrary {
			libs = append(libs, a)
		}
	}
	return libs
}
