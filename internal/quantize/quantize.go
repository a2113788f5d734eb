// Package quantize implements PaletteBuilder's selection phase (§4.1
// Phase 2/3): median-cut (heckbert), k-means, and the ward/hkmeans
// over-split-then-merge refinement.
package quantize

import (
	"math"
	"math/rand"
	"sort"

	"github.com/libsixel-go/sixel/internal/coretypes"
	"github.com/libsixel-go/sixel/internal/histogram"
)

// Options mirrors the subset of EncoderConfig the selection phase needs.
// Defined locally (rather than imported from the root package) to avoid an
// import cycle; the root package's PaletteBuilder fills this in from its
// EncoderConfig.
type Options struct {
	N               int
	QuantizeModel   coretypes.QuantizeModel
	FinalMerge      coretypes.FinalMergeMode
	FindLargest     coretypes.FindLargest
	SelectColor     coretypes.SelectColor
	OversplitFactor float64

	KMeansThreshold float64
	KMeansIterMax   int

	MergeAdditionalLloydIter int
	HKMeansIterMax           int
	HKMeansThreshold         float64

	LuminFactorR, LuminFactorG float64

	Seed int64
}

// Result is the selected palette before key-color reservation and padding,
// which the root package's PaletteBuilder applies afterward.
type Result struct {
	Colors [][3]uint8
	Counts []uint64
}

// Build runs Phase 2 (selection) and, when configured, Phase 3
// (over-split + merge) of §4.1.
func Build(h *histogram.Histogram, opts Options) *Result {
	if len(h.Entries) <= opts.N {
		// §4.1 Phase 1: histogram already small enough, emit it directly.
		r := &Result{}
		for _, e := range h.Entries {
			r.Colors = append(r.Colors, [3]uint8{e.R, e.G, e.B})
			r.Counts = append(r.Counts, e.Count)
		}
		return r
	}

	target := opts.N
	k := target
	if opts.FinalMerge != coretypes.MergeNone && opts.FinalMerge != coretypes.MergeAuto {
		factor := opts.OversplitFactor
		if factor <= 0 {
			factor = 1.81
		}
		k = int(math.Round(float64(target) * factor))
		if k > 256 {
			k = 256
		}
		if k < target {
			k = target
		}
		if k > len(h.Entries) {
			k = len(h.Entries)
		}
	}

	work := append([]histogram.Entry(nil), h.Entries...)
	var centers [][3]uint8
	var counts []uint64

	switch opts.QuantizeModel {
	case coretypes.QuantizeKMeans:
		centers, counts = kmeans(work, k, opts)
	default: // heckbert, auto
		centers, counts = heckbert(work, k, opts)
	}

	if opts.FinalMerge == coretypes.MergeNone || opts.FinalMerge == coretypes.MergeAuto || k == target {
		return &Result{Colors: centers, Counts: counts}
	}

	switch opts.FinalMerge {
	case coretypes.MergeWard:
		centers, counts = mergeWard(centers, counts, work, target, opts)
	case coretypes.MergeHKMeans:
		centers, counts = mergeHKMeans(centers, counts, work, target, opts)
	}
	return &Result{Colors: centers, Counts: counts}
}

// heckbert implements median-cut (§4.1 Phase 2 heckbert variant).
func heckbert(work []histogram.Entry, k int, opts Options) ([][3]uint8, []uint64) {
	boxes := []box{{0, len(work)}}
	for len(boxes) < k {
		sx := -1
		var bestRange float64
		for i, b := range boxes {
			minR, maxR, minG, maxG, minB, maxB := b.bounds(work)
			_, rng := chooseAxis(minR, maxR, minG, maxG, minB, maxB, opts.FindLargest, lumR(opts), lumG(opts))
			if rng > bestRange {
				bestRange = rng
				sx = i
			}
		}
		if sx < 0 || bestRange == 0 {
			break
		}
		b := boxes[sx]
		minR, maxR, minG, maxG, minB, maxB := b.bounds(work)
		a, _ := chooseAxis(minR, maxR, minG, maxG, minB, maxB, opts.FindLargest, lumR(opts), lumG(opts))
		left, right := splitBox(work, b, a)
		boxes[sx] = left
		boxes = append(boxes, right)
	}

	colors := make([][3]uint8, len(boxes))
	counts := make([]uint64, len(boxes))
	for i, b := range boxes {
		colors[i] = representative(work, b, opts.SelectColor)
		counts[i] = b.count(work)
	}
	return colors, counts
}

func lumR(o Options) float64 {
	if o.LuminFactorR > 0 {
		return o.LuminFactorR
	}
	return 0.299
}

func lumG(o Options) float64 {
	if o.LuminFactorG > 0 {
		return o.LuminFactorG
	}
	return 0.587
}

func sqDist(a, b [3]uint8) float64 {
	dr := float64(a[0]) - float64(b[0])
	dg := float64(a[1]) - float64(b[1])
	db := float64(a[2]) - float64(b[2])
	return dr*dr + dg*dg + db*db
}

// kmeans implements k-means++ seeding followed by weighted Lloyd
// iterations (§4.1 Phase 2 kmeans variant).
func kmeans(work []histogram.Entry, k int, opts Options) ([][3]uint8, []uint64) {
	rng := rand.New(rand.NewSource(opts.Seed))
	centers := seedKMeansPlusPlus(work, k, rng)
	return lloyd(work, centers, kmeansThreshold(opts), kmeansIterMax(opts))
}

func kmeansThreshold(opts Options) float64 {
	if opts.KMeansThreshold > 0 {
		return opts.KMeansThreshold
	}
	return 0.125
}

func kmeansIterMax(opts Options) int {
	if opts.KMeansIterMax > 0 {
		return opts.KMeansIterMax
	}
	return 20
}

// seedKMeansPlusPlus picks the first center uniformly at random, then each
// subsequent center with probability proportional to squared distance from
// the nearest already-chosen center (§4.1).
func seedKMeansPlusPlus(work []histogram.Entry, k int, rng *rand.Rand) [][3]uint8 {
	if len(work) == 0 || k <= 0 {
		return nil
	}
	centers := make([][3]uint8, 0, k)
	first := work[rng.Intn(len(work))]
	centers = append(centers, [3]uint8{first.R, first.G, first.B})

	for len(centers) < k {
		weights := make([]float64, len(work))
		var total float64
		for i, e := range work {
			c := [3]uint8{e.R, e.G, e.B}
			best := math.MaxFloat64
			for _, ctr := range centers {
				if d := sqDist(c, ctr); d < best {
					best = d
				}
			}
			w := best * float64(e.Count)
			weights[i] = w
			total += w
		}
		if total == 0 {
			// All remaining points coincide with a chosen center; pad with
			// duplicates rather than loop forever.
			centers = append(centers, centers[len(centers)-1])
			continue
		}
		target := rng.Float64() * total
		var cum float64
		chosen := len(work) - 1
		for i, w := range weights {
			cum += w
			if cum >= target {
				chosen = i
				break
			}
		}
		e := work[chosen]
		centers = append(centers, [3]uint8{e.R, e.G, e.B})
	}
	return centers
}

// lloyd runs weighted Lloyd iterations: assign each entry to its nearest
// center, recompute centers as the pixel-weighted mean of their cluster,
// and stop on max-movement convergence or iteration budget (§4.1).
func lloyd(work []histogram.Entry, centers [][3]uint8, threshold float64, iterMax int) ([][3]uint8, []uint64) {
	k := len(centers)
	if k == 0 {
		return nil, nil
	}
	assign := make([]int, len(work))
	for iter := 0; iter < iterMax; iter++ {
		for i, e := range work {
			c := [3]uint8{e.R, e.G, e.B}
			best, bestJ := math.MaxFloat64, 0
			for j, ctr := range centers {
				if d := sqDist(c, ctr); d < best {
					best, bestJ = d, j
				}
			}
			assign[i] = bestJ
		}

		sums := make([][3]float64, k)
		counts := make([]uint64, k)
		for i, e := range work {
			j := assign[i]
			w := float64(e.Count)
			sums[j][0] += float64(e.R) * w
			sums[j][1] += float64(e.G) * w
			sums[j][2] += float64(e.B) * w
			counts[j] += e.Count
		}

		var maxMove float64
		newCenters := make([][3]uint8, k)
		for j := range centers {
			if counts[j] == 0 {
				newCenters[j] = centers[j]
				continue
			}
			n := float64(counts[j])
			nc := [3]uint8{
				uint8(math.Round(sums[j][0] / n)),
				uint8(math.Round(sums[j][1] / n)),
				uint8(math.Round(sums[j][2] / n)),
			}
			if d := math.Sqrt(sqDist(nc, centers[j])); d > maxMove {
				maxMove = d
			}
			newCenters[j] = nc
		}
		centers = newCenters
		if maxMove < threshold {
			break
		}
	}

	counts := make([]uint64, k)
	for i, e := range work {
		counts[assign[i]] += e.Count
	}
	return centers, counts
}

// mergeWard greedily merges the pair of provisional clusters with the
// smallest variance increase Δ = (n_i·n_j)/(n_i+n_j)·||c_i−c_j||² until
// exactly target clusters remain, then optionally refines with a few more
// Lloyd passes over the full entry set (§4.1 Phase 3).
func mergeWard(colors [][3]uint8, counts []uint64, work []histogram.Entry, target int, opts Options) ([][3]uint8, []uint64) {
	colors, counts = greedyMerge(colors, counts, target)
	iters := opts.MergeAdditionalLloydIter
	if iters <= 0 {
		iters = 3
	}
	return lloyd(work, colors, kmeansThreshold(opts), iters)
}

// mergeHKMeans merges the same way as ward but refines with Lloyd passes
// until the hkmeans threshold converges or hkmeans_iter_count_max elapses,
// rather than a fixed pass count (§4.1 Phase 3).
func mergeHKMeans(colors [][3]uint8, counts []uint64, work []histogram.Entry, target int, opts Options) ([][3]uint8, []uint64) {
	colors, counts = greedyMerge(colors, counts, target)
	threshold := opts.HKMeansThreshold
	if threshold <= 0 {
		threshold = 0.125
	}
	iterMax := opts.HKMeansIterMax
	if iterMax <= 0 {
		iterMax = 20
	}
	return lloyd(work, colors, threshold, iterMax)
}

// greedyMerge repeatedly merges the cheapest pair (by Δ) until len(colors)
// == target.
func greedyMerge(colors [][3]uint8, counts []uint64, target int) ([][3]uint8, []uint64) {
	colors = append([][3]uint8(nil), colors...)
	counts = append([]uint64(nil), counts...)

	for len(colors) > target {
		bi, bj := -1, -1
		best := math.MaxFloat64
		for i := 0; i < len(colors); i++ {
			for j := i + 1; j < len(colors); j++ {
				ni, nj := float64(counts[i]), float64(counts[j])
				if ni == 0 || nj == 0 {
					continue
				}
				delta := (ni * nj) / (ni + nj) * sqDist(colors[i], colors[j])
				if delta < best {
					best, bi, bj = delta, i, j
				}
			}
		}
		if bi < 0 {
			// Degenerate (all counts zero): merge the first two arbitrarily.
			bi, bj = 0, 1
		}
		ni, nj := float64(counts[bi]), float64(counts[bj])
		n := ni + nj
		var merged [3]uint8
		if n == 0 {
			merged = colors[bi]
		} else {
			merged = [3]uint8{
				uint8(math.Round((float64(colors[bi][0])*ni + float64(colors[bj][0])*nj) / n)),
				uint8(math.Round((float64(colors[bi][1])*ni + float64(colors[bj][1])*nj) / n)),
				uint8(math.Round((float64(colors[bi][2])*ni + float64(colors[bj][2])*nj) / n)),
			}
		}
		colors[bi] = merged
		counts[bi] = uint64(n)
		colors = append(colors[:bj], colors[bj+1:]...)
		counts = append(counts[:bj], counts[bj+1:]...)
	}

	// Keep output order stable/deterministic for the byte-identical-stream
	// property (§8 invariant 7/Scenario E).
	idx := make([]int, len(colors))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return counts[idx[i]] > counts[idx[j]] })
	sortedColors := make([][3]uint8, len(colors))
	sortedCounts := make([]uint64, len(counts))
	for i, j := range idx {
		sortedColors[i] = colors[j]
		sortedCounts[i] = counts[j]
	}
	return sortedColors, sortedCounts
}
