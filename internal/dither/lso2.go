package dither

import (
	"math"

	"github.com/libsixel-go/sixel/internal/coretypes"
)

// lso2Table holds, for each possible quantization-error magnitude 0..255, a
// 7-tuple [right, right2, down-left, down, down-right, down2, denom]
// describing how that magnitude of error spreads to its six neighbors —
// the "locally scaled order-2" adaptive kernel (§4.2). The published
// coefficient table did not survive in the retrieved sources (only the
// consumer that indexes it by error magnitude did, in
// dither-diffusion-adaptive.c), so the table here is regenerated from that
// consumer's documented intent: small-magnitude errors (flat regions) get
// spread wide and soft to avoid visible patterning, while large-magnitude
// errors (edges) concentrate onto the immediate right/down neighbors to
// keep edges crisp (see DESIGN.md).
var lso2Table = buildLSO2Table()

func buildLSO2Table() [256][7]int {
	var t [256][7]int
	for i := 0; i < 256; i++ {
		// frac rises from 0 (flat) to 1 (sharp edge).
		frac := float64(i) / 255
		// Soft end mirrors Stucki's 8/4/2/4/8/4/2/1 style spread collapsed
		// to this kernel's six taps; sharp end collapses toward plain
		// Floyd-Steinberg-like right/down dominance.
		soft := [6]float64{8, 4, 2, 8, 4, 1}
		sharp := [6]float64{7, 0, 3, 5, 1, 0}
		var w [6]float64
		var sum float64
		for k := 0; k < 6; k++ {
			w[k] = soft[k]*(1-frac) + sharp[k]*frac
			sum += w[k]
		}
		const denom = 256
		var accounted int
		for k := 0; k < 5; k++ {
			v := int(math.Round(w[k] / sum * denom))
			t[i][k] = v
			accounted += v
		}
		t[i][5] = denom - accounted
		t[i][6] = denom
	}
	return t
}

// applyLSO2 ports sixel_dither_apply_variable's direct/carry loop (§4.2):
// per-channel error is computed in float64 (not fixed point), looked up by its
// clamped magnitude in lso2Table, and spread to (x+1,y), (x+2,y),
// (x-1,y+1), (x,y+1), (x+1,y+1), (x,y+2) — mirrored when the scan is
// moving right-to-left.
func applyLSO2(src Source, palette [][3]uint8, opts Options) *Result {
	if opts.Carry == coretypes.CarryCarry {
		return applyLSO2Carry(src, palette, opts)
	}
	return applyLSO2Direct(src, palette, opts)
}

func lso2Weights(mag int) (int, int, int, int, int, int, int) {
	if mag < 0 {
		mag = 0
	}
	if mag > 255 {
		mag = 255
	}
	e := lso2Table[mag]
	return e[0], e[1], e[2], e[3], e[4], e[5], e[6]
}

func applyLSO2Direct(src Source, palette [][3]uint8, opts Options) *Result {
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
				continue
			}
			chosen := palette[idx]
			errs := [3]float64{p[0] - float64(chosen[0]), p[1] - float64(chosen[1]), p[2] - float64(chosen[2])}

			right := 1
			if step < 0 {
				right = -1
			}

			for c := 0; c < 3; c++ {
				mag := int(math.Abs(errs[c]))
				wr, wr2, wdl, wd, wdr, wd2, den := lso2Weights(mag)
				apply := func(dx, dy, weight int) {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h || weight == 0 {
						return
					}
					delta := errs[c] * float64(weight) / float64(den)
					np := &work[ny*w+nx]
					np[c] = clamp(np[c] + delta)
				}
				apply(right, 0, wr)
				apply(2*right, 0, wr2)
				apply(-right, 1, wdl)
				apply(0, 1, wd)
				apply(right, 1, wdr)
				apply(0, 2, wd2)
			}
		}
		notify(opts, y)
	}
	return &Result{Indices: out}
}

// applyLSO2Carry mirrors diffuse_lso2_carry: errors accumulate in three
// rotating row buffers (current/next/far) instead of mutating the source,
// matching CarryCarry semantics for the other kernels.
func applyLSO2Carry(src Source, palette [][3]uint8, opts Options) *Result {
	w, h := src.Width, src.Height
	rows := [3][][3]float64{make([][3]float64, w), make([][3]float64, w), make([][3]float64, w)}

	serpentine := opts.Scan == coretypes.ScanSerpentine
	out := make([]uint8, w*h)

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
			errs := [3]float64{pr - float64(chosen[0]), pg - float64(chosen[1]), pb - float64(chosen[2])}

			right := 1
			if step < 0 {
				right = -1
			}

			for c := 0; c < 3; c++ {
				mag := int(math.Abs(errs[c]))
				wr, wr2, wdl, wd, wdr, wd2, den := lso2Weights(mag)
				add := func(rowIdx, dx int, weight int) {
					nx := x + dx
					if nx < 0 || nx >= w || weight == 0 {
						return
					}
					rows[rowIdx][nx][c] += errs[c] * float64(weight) / float64(den)
				}
				add(0, right, wr)
				add(0, 2*right, wr2)
				add(1, -right, wdl)
				add(1, 0, wd)
				add(1, right, wdr)
				add(2, 0, wd2)
			}
		}
		notify(opts, y)

		spent := rows[0]
		rows[0] = rows[1]
		rows[1] = rows[2]
		for i := range spent {
			spent[i] = [3]float64{}
		}
		rows[2] = spent
	}
	return &Result{Indices: out}
}
