package dither

// OptimizePalette trims a palette down to only the entries an index image
// actually uses, returning the remapped indices as a new slice (§4.2 optimize_palette: "do not
// ship palette registers the stream never references").
func OptimizePalette(indices []uint8, palette [][3]uint8) ([]uint8, [][3]uint8) {
	migration := make([]int, len(palette))
	for i := range migration {
		migration[i] = -1
	}
	var trimmed [][3]uint8
	out := make([]uint8, len(indices))
	for i, idx := range indices {
		m := migration[idx]
		if m < 0 {
			m = len(trimmed)
			migration[idx] = m
			trimmed = append(trimmed, palette[idx])
		}
		out[i] = uint8(m)
	}
	return out, trimmed
}
