package sixel

import (
	"github.com/libsixel-go/sixel/internal/histogram"
	"github.com/libsixel-go/sixel/internal/quantize"
)

// BuildPalette implements §4.1's full PaletteBuilder pipeline: histogram
// construction, key-color reservation, selection (heckbert/kmeans), and
// the optional oversplit+merge refinement. frames must share a Colorspace;
// the palette is built once from their combined histogram (§4.1: "a
// multi-frame input builds one palette across all frames' pixels unless
// static mode is requested").
func BuildPalette(frames []*Frame, cfg EncoderConfig) (*Palette, error) {
	if len(frames) == 0 {
		return nil, newErr(BadInput, "no frames to build a palette from")
	}

	if len(frames) == 1 && frames[0].BypassesPaletteBuilder() {
		return frames[0].Palette, nil
	}

	depthBits := 24
	allPaletted := true
	for _, f := range frames {
		if !f.Format.IsPaletted() && !f.Format.IsGray() {
			allPaletted = false
		}
	}
	if allPaletted {
		depthBits = 8
	}

	keyR, keyG, keyB, hasKey := uint8(0), uint8(0), uint8(0), false
	if cfg.BGColor != nil {
		keyR, keyG, keyB, hasKey = cfg.BGColor[0], cfg.BGColor[1], cfg.BGColor[2], true
	}

	h := &histogram.Histogram{}
	for _, f := range frames {
		src := histogram.Source{
			Width:  f.Width,
			Height: f.Height,
			At:     f.At,
			Skip: func(x, y int) bool {
				_, _, _, a := f.At(x, y)
				return a == 0
			},
		}
		fh := histogram.Build(src, cfg.LUTPolicy, depthBits)
		h.Entries = append(h.Entries, fh.Entries...)
	}

	n := cfg.Colors
	if n <= 0 {
		n = 256
	}
	if n > 256 {
		n = 256
	}
	// Reserve one slot for the key color when one is set, per §4.1 Phase 4.
	budget := n
	if hasKey && budget > 1 {
		budget--
	}

	res := quantize.Build(h, quantize.Options{
		N:                        budget,
		QuantizeModel:            cfg.QuantizeModel,
		FinalMerge:               cfg.FinalMerge,
		FindLargest:              cfg.FindLargest,
		SelectColor:              cfg.SelectColor,
		OversplitFactor:          cfg.OversplitFactor,
		KMeansThreshold:          cfg.KMeansThreshold,
		KMeansIterMax:            cfg.KMeansIterMax,
		MergeAdditionalLloydIter: cfg.MergeAdditionalLloydIter,
		HKMeansIterMax:           cfg.HKMeansIterMax,
		HKMeansThreshold:         cfg.HKMeansThreshold,
		LuminFactorR:             cfg.LuminFactorR,
		LuminFactorG:             cfg.LuminFactorG,
		Seed:                     cfg.Seed,
	})

	p := NewPalette(n)
	p.Colors = res.Colors
	p.KeyIndex = -1
	if hasKey {
		p.KeyIndex = len(p.Colors)
		p.Colors = append(p.Colors, [3]uint8{keyR, keyG, keyB})
	}
	p.Active = len(p.Colors)

	if cfg.ForcePalette && p.Active < n {
		p.Force = true
		p.Pad(n)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
