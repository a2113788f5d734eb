package dither

// orderedA and orderedX are the two fixed-pattern ("ordered") dithers of
// §4.2. Neither table survived in the retrieved reference sources, so both
// are reconstructed from their description rather than ported: a_dither is
// a classic 4x4 Bayer matrix (arithmetic/deterministic spatial threshold),
// x_dither is a position-hashed pseudo-random threshold in the same value
// range, giving a less regular, less visible grid than Bayer at the cost
// of reproducibility across implementations (see DESIGN.md).
var orderedA = [4][4]int{
	{0, 8, 2, 10},
	{12, 4, 14, 6},
	{3, 11, 1, 9},
	{15, 7, 13, 5},
}

func aDitherThreshold(x, y int) float64 {
	v := orderedA[y&3][x&3]
	return (float64(v)+0.5)/16 - 0.5
}

// xDitherThreshold hashes the pixel coordinate into a stable, well-mixed
// value in [0,1) using a splitmix-style integer mix, then recenters it.
func xDitherThreshold(x, y int) float64 {
	h := uint32(x)*0x9E3779B1 + uint32(y)*0x85EBCA77
	h ^= h >> 15
	h *= 0x2C1B3C6D
	h ^= h >> 12
	h *= 0x297A2D39
	h ^= h >> 15
	return float64(h%4096)/4096 - 0.5
}

type thresholdFunc func(x, y int) float64

func aDitherFunc(x, y int) float64 { return aDitherThreshold(x, y) }

func applyOrdered(src Source, palette [][3]uint8, opts Options, which thresholdFunc) *Result {
	if which == nil {
		which = aDitherFunc
	}
	out := make([]uint8, src.Width*src.Height)
	const amplitude = 48 // spread of the threshold pattern in 8-bit levels
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			r, g, b, a := src.At(x, y)
			if a == 0 && opts.KeyIndex >= 0 {
				out[y*src.Width+x] = uint8(opts.KeyIndex)
				continue
			}
			t := which(x, y) * amplitude
			pr := clamp(float64(r) + t)
			pg := clamp(float64(g) + t)
			pb := clamp(float64(b) + t)
			out[y*src.Width+x] = uint8(nearest(palette, pr, pg, pb, opts.ComplexionScore))
		}
		notify(opts, y)
	}
	return &Result{Indices: out}
}
