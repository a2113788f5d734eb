// Package dither implements the Dither component of §4.2: mapping a
// working-colorspace image onto a fixed Palette, with or without error
// diffusion.
package dither

import (
	"math"

	"github.com/libsixel-go/sixel/internal/coretypes"
)

// Source is a pixel accessor, mirroring internal/histogram.Source so this
// package never depends on the root Frame type (avoiding an import cycle).
type Source struct {
	Width, Height int
	At            func(x, y int) (r, g, b, a uint8)
}

// Options mirrors the subset of EncoderConfig the Dither stage needs.
type Options struct {
	Diffusion       coretypes.DiffusionMethod
	Scan            coretypes.ScanMethod
	Carry           coretypes.CarryMethod
	ComplexionScore int
	OptimizePalette bool
	KeyIndex        int // palette slot treated as transparent, or -1

	// RowNotify, if set, is called after each output row is finalized
	// (§5: lets band workers report progress without a shared writer).
	RowNotify func(y int)
}

// Result is the index image produced by Apply. Apply does not trim the
// palette and leaves Palette nil; trimming is done separately by the
// OptimizePalette function.
type Result struct {
	Indices []uint8
	Palette [][3]uint8 // not set by Apply
}

// offset is one term of an error-diffusion kernel: propagate num/den of the
// quantization error to the pixel at (dx, dy) relative to the current one.
type offset struct {
	dx, dy   int
	num, den int
}

// kernel is a named weight table; §4.2 lists the closed set of supported
// diffusion methods.
func kernelFor(m coretypes.DiffusionMethod) []offset {
	switch m {
	case coretypes.DiffuseFS:
		return []offset{
			{1, 0, 7, 16}, {-1, 1, 3, 16}, {0, 1, 5, 16}, {1, 1, 1, 16},
		}
	case coretypes.DiffuseAtkinson:
		return []offset{
			{1, 0, 1, 8}, {2, 0, 1, 8},
			{-1, 1, 1, 8}, {0, 1, 1, 8}, {1, 1, 1, 8},
			{0, 2, 1, 8},
		}
	case coretypes.DiffuseJaJuNi:
		return []offset{
			{1, 0, 7, 48}, {2, 0, 5, 48},
			{-2, 1, 3, 48}, {-1, 1, 5, 48}, {0, 1, 7, 48}, {1, 1, 5, 48}, {2, 1, 3, 48},
			{-2, 2, 1, 48}, {-1, 2, 3, 48}, {0, 2, 5, 48}, {1, 2, 3, 48}, {2, 2, 1, 48},
		}
	case coretypes.DiffuseStucki:
		return []offset{
			{1, 0, 8, 42}, {2, 0, 4, 42},
			{-2, 1, 2, 42}, {-1, 1, 4, 42}, {0, 1, 8, 42}, {1, 1, 4, 42}, {2, 1, 2, 42},
			{-2, 2, 1, 42}, {-1, 2, 2, 42}, {0, 2, 4, 42}, {1, 2, 2, 42}, {2, 2, 1, 42},
		}
	case coretypes.DiffuseBurkes:
		return []offset{
			{1, 0, 8, 32}, {2, 0, 4, 32},
			{-2, 1, 2, 32}, {-1, 1, 4, 32}, {0, 1, 8, 32}, {1, 1, 4, 32}, {2, 1, 2, 32},
		}
	case coretypes.DiffuseSierra3:
		return []offset{
			{1, 0, 5, 32}, {2, 0, 3, 32},
			{-2, 1, 2, 32}, {-1, 1, 4, 32}, {0, 1, 5, 32}, {1, 1, 4, 32}, {2, 1, 2, 32},
			{-1, 2, 2, 32}, {0, 2, 3, 32}, {1, 2, 2, 32},
		}
	case coretypes.DiffuseSierra2:
		return []offset{
			{1, 0, 4, 16}, {2, 0, 3, 16},
			{-2, 1, 1, 16}, {-1, 1, 2, 16}, {0, 1, 3, 16}, {1, 1, 2, 16}, {2, 1, 1, 16},
		}
	case coretypes.DiffuseSierra1:
		return []offset{
			{1, 0, 2, 4},
			{-1, 1, 1, 4}, {0, 1, 1, 4},
		}
	default:
		return nil
	}
}

func maxDY(k []offset) int {
	m := 0
	for _, o := range k {
		if o.dy > m {
			m = o.dy
		}
	}
	return m
}

// Apply maps src onto palette, per §4.2. For DiffuseNone/Auto it is a
// direct nearest-color lookup; for a diffusion method it propagates
// quantization error per the chosen kernel, scan order, and carry mode.
func Apply(src Source, palette [][3]uint8, opts Options) *Result {
	switch opts.Diffusion {
	case coretypes.DiffuseADither:
		return applyOrdered(src, palette, opts, aDitherFunc)
	case coretypes.DiffuseXDither:
		return applyOrdered(src, palette, opts, xDitherThreshold)
	case coretypes.DiffuseLSO2:
		return applyLSO2(src, palette, opts)
	}

	kernel := kernelFor(opts.Diffusion)
	if kernel == nil {
		return applyFlat(src, palette, opts)
	}
	if opts.Carry == coretypes.CarryCarry {
		return applyCarry(src, palette, opts, kernel)
	}
	return applyDirect(src, palette, opts, kernel)
}

func nearest(palette [][3]uint8, r, g, b float64, complexion int) int {
	best, bestIdx := math.MaxFloat64, 0
	for i, c := range palette {
		dr := r - float64(c[0])
		dg := g - float64(c[1])
		db := b - float64(c[2])
		// Complexion correction (§4.2): when the score is above 1 and the
		// pixel looks like skin (R > G > B, R − B > 30), weight the red
		// channel more heavily so skin-tone hues win close ties against
		// cooler competitors.
		if complexion > 1 && r > g && g > b && r-b > 30 {
			dr *= 1 + float64(complexion)/512
		}
		d := dr*dr + dg*dg + db*db
		if d < best {
			best, bestIdx = d, i
		}
	}
	return bestIdx
}

func applyFlat(src Source, palette [][3]uint8, opts Options) *Result {
	out := make([]uint8, src.Width*src.Height)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			r, g, b, a := src.At(x, y)
			idx := 0
			if a == 0 && opts.KeyIndex >= 0 {
				idx = opts.KeyIndex
			} else {
				idx = nearest(palette, float64(r), float64(g), float64(b), opts.ComplexionScore)
			}
			out[y*src.Width+x] = uint8(idx)
		}
		notify(opts, y)
	}
	return &Result{Indices: out}
}

func notify(opts Options, y int) {
	if opts.RowNotify != nil {
		opts.RowNotify(y)
	}
}

func scanRow(serpentine bool, y, width int) (start, end, step int) {
	if serpentine && y%2 == 1 {
		return width - 1, -1, -1
	}
	return 0, width, 1
}

// applyDirect mutates a float64 working copy of the image in place, in the
// manner of makew0rld-dither's Ditherer.Dither: simple to reason about, at
// the cost of touching pixels that were already visited on this row when a
// kernel term points backward at dy==0 — acceptable since no shipped
// kernel here diffuses leftward on the current row.
func applyDirect(src Source, palette [][3]uint8, opts Options, kernel []offset) *Result {
	w, h := src.Width, src.Height
	work := make([][3]float64, w*h)
	alpha := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := src.At(x, y)
			work[y*w+x] = [3]float64{float64(r), float64(g), float64(b)}
			alpha[y*w+x] = a
		}
	}

	serpentine := opts.Scan == coretypes.ScanSerpentine
	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		start, end, step := scanRow(serpentine, y, w)
		for x := start; x != end; x += step {
			p := work[y*w+x]
			var idx int
			if alpha[y*w+x] == 0 && opts.KeyIndex >= 0 {
				idx = opts.KeyIndex
			} else {
				idx = nearest(palette, p[0], p[1], p[2], opts.ComplexionScore)
			}
			out[y*w+x] = uint8(idx)

			if alpha[y*w+x] == 0 && opts.KeyIndex >= 0 {
				continue // don't diffuse error from transparent pixels
			}
			chosen := palette[idx]
			er := p[0] - float64(chosen[0])
			eg := p[1] - float64(chosen[1])
			eb := p[2] - float64(chosen[2])

			for _, o := range kernel {
				dx := o.dx
				if step < 0 {
					dx = -dx // mirror the kernel when scanning right-to-left
				}
				nx, ny := x+dx, y+o.dy
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				frac := float64(o.num) / float64(o.den)
				np := &work[ny*w+nx]
				np[0] = clamp(np[0] + er*frac)
				np[1] = clamp(np[1] + eg*frac)
				np[2] = clamp(np[2] + eb*frac)
			}
		}
		notify(opts, y)
	}
	return &Result{Indices: out}
}

// applyCarry implements CarryCarry: rather than mutating the source image
// in place, error terms accumulate in a small set of row buffers (one per
// distinct dy a kernel can reach) that rotate forward as rows complete —
// the same technique the original adaptive diffuser uses for its own
// carry-buffer mode (see DESIGN.md).
func applyCarry(src Source, palette [][3]uint8, opts Options, kernel []offset) *Result {
	w, h := src.Width, src.Height
	maxDy := maxDY(kernel)
	rows := make([][][3]float64, maxDy+1)
	for i := range rows {
		rows[i] = make([][3]float64, w)
	}

	serpentine := opts.Scan == coretypes.ScanSerpentine
	out := make([]uint8, w*h)

	addErr := func(dy, x int, e [3]float64) {
		if dy < 0 || dy > maxDy {
			return
		}
		row := rows[dy]
		row[x][0] += e[0]
		row[x][1] += e[1]
		row[x][2] += e[2]
	}

	for y := 0; y < h; y++ {
		start, end, step := scanRow(serpentine, y, w)
		for x := start; x != end; x += step {
			r, g, b, a := src.At(x, y)
			carried := rows[0][x]
			pr := clamp(float64(r) + carried[0])
			pg := clamp(float64(g) + carried[1])
			pb := clamp(float64(b) + carried[2])

			var idx int
			if a == 0 && opts.KeyIndex >= 0 {
				idx = opts.KeyIndex
			} else {
				idx = nearest(palette, pr, pg, pb, opts.ComplexionScore)
			}
			out[y*w+x] = uint8(idx)

			if a == 0 && opts.KeyIndex >= 0 {
				continue
			}
			chosen := palette[idx]
			er := pr - float64(chosen[0])
			eg := pg - float64(chosen[1])
			eb := pb - float64(chosen[2])

			for _, o := range kernel {
				dx := o.dx
				if step < 0 {
					dx = -dx
				}
				nx := x + dx
				if nx < 0 || nx >= w {
					continue
				}
				frac := float64(o.num) / float64(o.den)
				addErr(o.dy, nx, [3]float64{er * frac, eg * frac, eb * frac})
			}
		}
		notify(opts, y)

		// Rotate: row 0 (just consumed) becomes the new far row, everything
		// else shifts down by one and is zeroed at the back.
		spent := rows[0]
		copy(rows, rows[1:])
		for i := range spent {
			spent[i] = [3]float64{}
		}
		rows[len(rows)-1] = spent
	}
	return &Result{Indices: out}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
