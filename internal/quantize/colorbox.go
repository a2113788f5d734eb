package quantize

import (
	"sort"

	"github.com/libsixel-go/sixel/internal/coretypes"
	"github.com/libsixel-go/sixel/internal/histogram"
)

// box is a ColorBox (§3): a half-open index range [lo, hi) over a shared,
// mutable working copy of the histogram entries. Representing boxes as
// index pairs over one backing slice — rather than per-box allocations —
// is what keeps the median-cut tree acyclic in a GC-less sense (§9
// "Cyclic ownership").
type box struct {
	lo, hi int
}

func (b box) count(entries []histogram.Entry) uint64 {
	var n uint64
	for i := b.lo; i < b.hi; i++ {
		n += entries[i].Count
	}
	return n
}

// bounds returns the per-channel [min,max] of the box.
func (b box) bounds(entries []histogram.Entry) (minR, maxR, minG, maxG, minB, maxB uint8) {
	minR, minG, minB = 255, 255, 255
	for i := b.lo; i < b.hi; i++ {
		e := entries[i]
		if e.R < minR {
			minR = e.R
		}
		if e.R > maxR {
			maxR = e.R
		}
		if e.G < minG {
			minG = e.G
		}
		if e.G > maxG {
			maxG = e.G
		}
		if e.B < minB {
			minB = e.B
		}
		if e.B > maxB {
			maxB = e.B
		}
	}
	return
}

// axis identifies which channel heckbert will split on.
type axis int

const (
	axisR axis = iota
	axisG
	axisB
)

// chooseAxis implements method_for_largest (§4.1): norm picks the raw
// longest channel range, lum weights by (0.299R, 0.587G, 0.114B) unless
// the caller supplied its own R/G weights (§6 env vars), with B taking the
// remainder so the three weights always sum to 1.
func chooseAxis(minR, maxR, minG, maxG, minB, maxB uint8, find coretypes.FindLargest, lumR, lumG float64) (axis, float64) {
	rangeR := float64(maxR) - float64(minR)
	rangeG := float64(maxG) - float64(minG)
	rangeB := float64(maxB) - float64(minB)

	if find == coretypes.FindLargestLum || find == coretypes.FindLargestAuto {
		lumB := 1 - lumR - lumG
		wr, wg, wb := rangeR*lumR, rangeG*lumG, rangeB*lumB
		best, bestAxis := wr, axisR
		if wg > best {
			best, bestAxis = wg, axisG
		}
		if wb > best {
			best, bestAxis = wb, axisB
		}
		return bestAxis, best
	}
	// norm: plain channel range
	best, bestAxis := rangeR, axisR
	if rangeG > best {
		best, bestAxis = rangeG, axisG
	}
	if rangeB > best {
		best, bestAxis = rangeB, axisB
	}
	return bestAxis, best
}

func channelValue(e histogram.Entry, a axis) uint8 {
	switch a {
	case axisR:
		return e.R
	case axisG:
		return e.G
	default:
		return e.B
	}
}

// splitBox sorts the box's entries along the chosen axis and cuts at the
// pixel-count median (§4.1: "split at the median (by pixel count, not by
// entry count)"), returning the two child boxes.
func splitBox(entries []histogram.Entry, b box, a axis) (box, box) {
	sub := entries[b.lo:b.hi]
	sort.Slice(sub, func(i, j int) bool { return channelValue(sub[i], a) < channelValue(sub[j], a) })

	total := b.count(entries)
	half := total / 2
	var cum uint64
	cut := b.lo
	for i := b.lo; i < b.hi; i++ {
		cum += entries[i].Count
		cut = i + 1
		if cum >= half {
			break
		}
	}
	// Guarantee both children are non-empty.
	if cut <= b.lo {
		cut = b.lo + 1
	}
	if cut >= b.hi {
		cut = b.hi - 1
	}
	return box{b.lo, cut}, box{cut, b.hi}
}

// representative computes the box's single output color per
// method_for_rep (§4.1).
func representative(entries []histogram.Entry, b box, sel coretypes.SelectColor) [3]uint8 {
	switch sel {
	case coretypes.SelectCenter:
		minR, maxR, minG, maxG, minB, maxB := b.bounds(entries)
		return [3]uint8{
			uint8((int(minR) + int(maxR)) / 2),
			uint8((int(minG) + int(maxG)) / 2),
			uint8((int(minB) + int(maxB)) / 2),
		}
	case coretypes.SelectHistogram:
		var rs, gs, bs, n uint64
		for i := b.lo; i < b.hi; i++ {
			e := entries[i]
			rs += uint64(e.R) * e.Count
			gs += uint64(e.G) * e.Count
			bs += uint64(e.B) * e.Count
			n += e.Count
		}
		if n == 0 {
			n = 1
		}
		return [3]uint8{uint8(rs / n), uint8(gs / n), uint8(bs / n)}
	default: // average, and the auto/center fallback for method_for_rep=auto
		var rs, gs, bs int
		n := b.hi - b.lo
		if n == 0 {
			return [3]uint8{0, 0, 0}
		}
		for i := b.lo; i < b.hi; i++ {
			e := entries[i]
			rs += int(e.R)
			gs += int(e.G)
			bs += int(e.B)
		}
		return [3]uint8{uint8(rs / n), uint8(gs / n), uint8(bs / n)}
	}
}
