package sixel

import "github.com/libsixel-go/sixel/internal/dither"

// Reduce applies Dither (§4.2): it maps frame onto palette, optionally
// diffusing quantization error, and returns the resulting IndexImage. If
// frame already bypasses PaletteBuilder (a native PAL* frame reusing its
// own embedded palette), callers should skip Reduce entirely and build the
// IndexImage directly from the frame's existing indices.
func Reduce(frame *Frame, palette *Palette, cfg EncoderConfig, rowNotify func(y int)) (*IndexImage, error) {
	if palette == nil {
		return nil, newErr(LogicError, "reduce: palette is nil")
	}

	src := dither.Source{
		Width:  frame.Width,
		Height: frame.Height,
		At:     frame.At,
	}

	keyIdx := -1
	if palette.KeyIndex >= 0 {
		keyIdx = palette.KeyIndex
	}

	res := dither.Apply(src, palette.Colors, dither.Options{
		Diffusion:       cfg.Diffusion,
		Scan:            cfg.DiffusionScan,
		Carry:           cfg.DiffusionCarry,
		ComplexionScore: cfg.ComplexionScore,
		OptimizePalette: cfg.OptimizePalette,
		KeyIndex:        keyIdx,
		RowNotify:       rowNotify,
	})

	outPalette := palette
	indices := res.Indices
	if cfg.OptimizePalette && !cfg.ForcePalette {
		trimmedIndices, trimmedColors := dither.OptimizePalette(indices, palette.Colors)
		indices = trimmedIndices
		outPalette = &Palette{
			Colors:    trimmedColors,
			Active:    len(trimmedColors),
			Requested: palette.Requested,
			KeyIndex:  -1,
			Format:    palette.Format,
		}
	}

	ii := &IndexImage{
		Width:   frame.Width,
		Height:  frame.Height,
		Indices: indices,
		Palette: outPalette,
	}
	if err := ii.Validate(); err != nil {
		return nil, err
	}
	return ii, nil
}
