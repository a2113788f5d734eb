package quantize

import (
	"testing"

	"github.com/libsixel-go/sixel/internal/coretypes"
	"github.com/libsixel-go/sixel/internal/histogram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(colors [][3]uint8, counts []uint64) []histogram.Entry {
	es := make([]histogram.Entry, len(colors))
	for i, c := range colors {
		es[i] = histogram.Entry{R: c[0], G: c[1], B: c[2], Count: counts[i]}
	}
	return es
}

func TestBuildBypassesWhenHistogramFitsBudget(t *testing.T) {
	h := &histogram.Histogram{Entries: entries(
		[][3]uint8{{1, 2, 3}, {4, 5, 6}},
		[]uint64{10, 20},
	)}
	res := Build(h, Options{N: 4})
	require.Len(t, res.Colors, 2)
	assert.Equal(t, [3]uint8{1, 2, 3}, res.Colors[0])
}

func TestHeckbertSplitsDownToBudget(t *testing.T) {
	var colors [][3]uint8
	var counts []uint64
	for r := 0; r < 8; r++ {
		for g := 0; g < 8; g++ {
			colors = append(colors, [3]uint8{uint8(r * 32), uint8(g * 32), 0})
			counts = append(counts, 1)
		}
	}
	h := &histogram.Histogram{Entries: entries(colors, counts)}

	res := Build(h, Options{
		N:             8,
		QuantizeModel: coretypes.QuantizeHeckbert,
		FindLargest:   coretypes.FindLargestNorm,
		SelectColor:   coretypes.SelectAverage,
	})
	assert.LessOrEqual(t, len(res.Colors), 8)
	assert.NotEmpty(t, res.Colors)

	var total uint64
	for _, c := range res.Counts {
		total += c
	}
	assert.EqualValues(t, len(colors), total, "every input pixel should be accounted for across output boxes")
}

func TestKMeansConverges(t *testing.T) {
	var colors [][3]uint8
	var counts []uint64
	clusters := [][3]uint8{{0, 0, 0}, {255, 255, 255}, {255, 0, 0}}
	for _, c := range clusters {
		for i := 0; i < 20; i++ {
			colors = append(colors, c)
			counts = append(counts, 1)
		}
	}
	h := &histogram.Histogram{Entries: entries(colors, counts)}

	res := Build(h, Options{
		N:               3,
		QuantizeModel:   coretypes.QuantizeKMeans,
		KMeansThreshold: 0.01,
		KMeansIterMax:   30,
		Seed:            1,
	})
	require.Len(t, res.Colors, 3)

	// Every resulting center should land near one of the three true clusters.
	for _, c := range res.Colors {
		foundClose := false
		for _, tc := range clusters {
			d := sqDist(c, tc)
			if d < 100 {
				foundClose = true
			}
		}
		assert.True(t, foundClose, "center %v not near any true cluster", c)
	}
}

func TestWardMergeReducesToTarget(t *testing.T) {
	var colors [][3]uint8
	var counts []uint64
	for i := 0; i < 40; i++ {
		colors = append(colors, [3]uint8{uint8(i * 6), uint8(i * 3), uint8(255 - i*6)})
		counts = append(counts, 1)
	}
	h := &histogram.Histogram{Entries: entries(colors, counts)}

	res := Build(h, Options{
		N:                        4,
		QuantizeModel:            coretypes.QuantizeHeckbert,
		FinalMerge:               coretypes.MergeWard,
		OversplitFactor:          2.0,
		MergeAdditionalLloydIter: 2,
	})
	assert.Len(t, res.Colors, 4)
}
