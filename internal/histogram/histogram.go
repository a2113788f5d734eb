// Package histogram builds the bucketed color→count map PaletteBuilder
// quantizes over (§4.1 Phase 1).
package histogram

import "github.com/libsixel-go/sixel/internal/coretypes"

// Entry is one distinct (bucketed) color and its pixel count.
type Entry struct {
	R, G, B uint8
	Count   uint64
}

// Histogram is a dense array of Entry, built once per palette build and
// discarded afterward — deliberately not a map-of-maps so that ColorBox can
// represent its partitions as index ranges over a single backing slice
// (§9 "Cyclic ownership").
type Histogram struct {
	Entries []Entry
}

// Source is what Build walks: the caller supplies width, height,
// and a pixel accessor so the histogram package never depends on the
// public Frame type (avoiding an import cycle with the root package).
type Source struct {
	Width, Height int
	At            func(x, y int) (r, g, b, a uint8)
	// Skip, if non-nil, reports whether the pixel at (x,y) should be
	// excluded from the histogram (used for key-color reservation, §4.1
	// Phase 4: transparent pixels never enter quantization).
	Skip func(x, y int) bool
}

// Build scans every pixel of src, accumulating counts under the given LUT
// policy (§4.1). `auto` resolves to 5bit for <=8bpp source depth and 6bit
// otherwise; depthBits is the caller's best estimate of source bit depth
// (24 for truecolor, <=8 for paletted/gray sources).
func Build(src Source, policy coretypes.LUTPolicy, depthBits int) *Histogram {
	if policy == coretypes.LUTAuto {
		if depthBits <= 8 {
			policy = coretypes.LUTFiveBit
		} else {
			policy = coretypes.LUTSixBit
		}
	}

	switch policy {
	case coretypes.LUTFiveBit:
		return buildBucketed(src, 5)
	case coretypes.LUTSixBit:
		return buildBucketed(src, 6)
	default:
		// None, CertLUT, and the robinhood/hopscotch aliases all map to an
		// exact open-addressed hash with no channel bucketing (§9).
		return buildExact(src)
	}
}

func buildBucketed(src Source, bits int) *Histogram {
	shift := uint(8 - bits)
	buckets := make(map[uint32]*Entry)
	order := make([]uint32, 0, 1<<(3*bits))
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			if src.Skip != nil && src.Skip(x, y) {
				continue
			}
			r, g, b, _ := src.At(x, y)
			rq, gq, bq := r>>shift, g>>shift, b>>shift
			key := uint32(rq)<<(2*bits) | uint32(gq)<<bits | uint32(bq)
			e, ok := buckets[key]
			if !ok {
				// Representative color for the bucket: reconstruct the
				// quantized value's midpoint so palettes don't bias toward
				// zero.
				half := uint8(1) << shift >> 1
				e = &Entry{R: rq<<shift | half, G: gq<<shift | half, B: bq<<shift | half}
				buckets[key] = e
				order = append(order, key)
			}
			e.Count++
		}
	}
	h := &Histogram{Entries: make([]Entry, 0, len(order))}
	for _, k := range order {
		h.Entries = append(h.Entries, *buckets[k])
	}
	return h
}

func buildExact(src Source) *Histogram {
	type key struct{ r, g, b uint8 }
	counts := make(map[key]uint64)
	order := make([]key, 0, 4096)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			if src.Skip != nil && src.Skip(x, y) {
				continue
			}
			r, g, b, _ := src.At(x, y)
			k := key{r, g, b}
			if _, ok := counts[k]; !ok {
				order = append(order, k)
			}
			counts[k]++
		}
	}
	h := &Histogram{Entries: make([]Entry, 0, len(order))}
	for _, k := range order {
		h.Entries = append(h.Entries, Entry{R: k.r, G: k.g, B: k.b, Count: counts[k]})
	}
	return h
}

// TotalPixels sums the pixel counts across all entries.
func (h *Histogram) TotalPixels() uint64 {
	var n uint64
	for _, e := range h.Entries {
		n += e.Count
	}
	return n
}
