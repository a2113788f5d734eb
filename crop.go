package sixel

// Crop implements §4.4's crop stage: extract the CropRect sub-image from
// f, clamping the rectangle to frame bounds rather than erroring, since an
// out-of-range crop is a common and recoverable caller mistake.
func Crop(f *Frame, r CropRect) *Frame {
	if !r.Set {
		return f
	}

	x, y, w, h := r.X, r.Y, r.W, r.H
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x > f.Width {
		x = f.Width
	}
	if y > f.Height {
		y = f.Height
	}
	if x+w > f.Width {
		w = f.Width - x
	}
	if y+h > f.Height {
		h = f.Height - y
	}
	if w <= 0 || h <= 0 {
		w, h = 1, 1
	}

	out := &Frame{
		Width:      w,
		Height:     h,
		Format:     RGBA8888,
		Colorspace: f.Colorspace,
		Pixels:     make([]byte, w*h*4),
	}
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			r, g, b, a := f.At(x+dx, y+dy)
			o := (dy*w + dx) * 4
			out.Pixels[o], out.Pixels[o+1], out.Pixels[o+2], out.Pixels[o+3] = r, g, b, a
		}
	}
	return out
}

// ResolveGeometry turns a (Width, Height) GeometryValue pair into concrete
// pixel dimensions, per §4.4: `auto` on one axis preserves aspect from the
// other; `%` is relative to the source frame; `c` (cells) multiplies by
// the supplied terminal cell size.
func ResolveGeometry(srcW, srcH int, w, h GeometryValue, cellW, cellH int) (int, int) {
	resolve := func(v GeometryValue, src, cell int) (int, bool) {
		switch v.Unit {
		case UnitPixels:
			return v.Value, true
		case UnitPercent:
			return src * v.Value / 100, true
		case UnitCells:
			if cell <= 0 {
				cell = 1
			}
			return v.Value * cell, true
		default:
			return 0, false
		}
	}

	rw, okW := resolve(w, srcW, cellW)
	rh, okH := resolve(h, srcH, cellH)

	switch {
	case okW && okH:
		return rw, rh
	case okW && !okH:
		return rw, srcH * rw / srcW
	case !okW && okH:
		return srcW * rh / srcH, rh
	default:
		return srcW, srcH
	}
}
