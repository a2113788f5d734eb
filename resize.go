package sixel

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Resample implements §4.4's geometry stage: scaling a Frame to (w, h)
// under the selected ResamplingFilter. Nearest and Bilinear delegate to
// golang.org/x/image/draw's fast paths (the teacher's own resize
// dependency surface); the remaining filters in the closed enum have no
// library in the retrieval pack, so they're implemented directly as
// separable convolution kernels (see DESIGN.md).
func Resample(f *Frame, w, h int, filter ResamplingFilter) (*Frame, error) {
	if w <= 0 || h <= 0 {
		return nil, newErr(BadArgument, "resample target must be positive, got %dx%d", w, h)
	}
	if w == f.Width && h == f.Height {
		return f, nil
	}

	src := frameToNRGBA(f)
	var dst *image.NRGBA

	switch filter {
	case ResampleNearest:
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	case ResampleBilinear:
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	default:
		k, support := kernelFor(filter)
		dst = convolveResize(src, w, h, k, support)
	}

	return &Frame{
		Width:      w,
		Height:     h,
		Format:     RGBA8888,
		Colorspace: f.Colorspace,
		Pixels:     dst.Pix,
	}, nil
}

func frameToNRGBA(f *Frame) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b, a := f.At(x, y)
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: a})
		}
	}
	return img
}

// kernelWeight is a 1-D separable resampling kernel.
type kernelWeight func(x float64) float64

// kernelFor returns the filter's weight function and its nonzero radius in
// source-pixel units.
func kernelFor(filter ResamplingFilter) (kernelWeight, float64) {
	switch filter {
	case ResampleGaussian:
		const sigma = 0.8
		return func(x float64) float64 {
			return math.Exp(-(x * x) / (2 * sigma * sigma))
		}, 2.5
	case ResampleHanning:
		return func(x float64) float64 {
			if x <= -1 || x >= 1 {
				return 0
			}
			return 0.5 * (1 + math.Cos(math.Pi*x))
		}, 1
	case ResampleHamming:
		return func(x float64) float64 {
			if x <= -1 || x >= 1 {
				return 0
			}
			return 0.54 + 0.46*math.Cos(math.Pi*x)
		}, 1
	case ResampleWelsh:
		return func(x float64) float64 {
			if x <= -1 || x >= 1 {
				return 0
			}
			return 1 - x*x
		}, 1
	case ResampleBicubic:
		return bicubicWeight, 2
	case ResampleLanczos2:
		return lanczosWeight(2), 2
	case ResampleLanczos3:
		return lanczosWeight(3), 3
	case ResampleLanczos4:
		return lanczosWeight(4), 4
	default:
		return bicubicWeight, 2
	}
}

// bicubicWeight is the Catmull-Rom variant (a = -0.5).
func bicubicWeight(x float64) float64 {
	const a = -0.5
	x = math.Abs(x)
	if x <= 1 {
		return (a+2)*x*x*x - (a+3)*x*x + 1
	}
	if x < 2 {
		return a*x*x*x - 5*a*x*x + 8*a*x - 4*a
	}
	return 0
}

func lanczosWeight(lobes float64) kernelWeight {
	return func(x float64) float64 {
		if x == 0 {
			return 1
		}
		if x <= -lobes || x >= lobes {
			return 0
		}
		px := math.Pi * x
		return lobes * math.Sin(px) * math.Sin(px/lobes) / (px * px)
	}
}

// convolveResize performs a separable (horizontal then vertical) convolution
// resize using the given 1-D kernel, in NRGBA premultiplied-free space.
func convolveResize(src *image.NRGBA, dstW, dstH int, kernel kernelWeight, support float64) *image.NRGBA {
	srcW, srcH := src.Bounds().Dx(), src.Bounds().Dy()

	// Horizontal pass: srcW x srcH -> dstW x srcH.
	mid := make([]float64, dstW*srcH*4)
	scaleX := float64(srcW) / float64(dstW)
	for dx := 0; dx < dstW; dx++ {
		center := (float64(dx)+0.5)*scaleX - 0.5
		lo := int(math.Floor(center - support*math.Max(scaleX, 1)))
		hi := int(math.Ceil(center + support*math.Max(scaleX, 1)))
		for sy := 0; sy < srcH; sy++ {
			var sum [4]float64
			var wsum float64
			for sx := lo; sx <= hi; sx++ {
				if sx < 0 || sx >= srcW {
					continue
				}
				w := kernel((float64(sx) - center) / math.Max(scaleX, 1))
				if w == 0 {
					continue
				}
				c := src.NRGBAAt(sx, sy)
				sum[0] += w * float64(c.R)
				sum[1] += w * float64(c.G)
				sum[2] += w * float64(c.B)
				sum[3] += w * float64(c.A)
				wsum += w
			}
			o := (sy*dstW + dx) * 4
			if wsum == 0 {
				wsum = 1
			}
			mid[o+0] = sum[0] / wsum
			mid[o+1] = sum[1] / wsum
			mid[o+2] = sum[2] / wsum
			mid[o+3] = sum[3] / wsum
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	scaleY := float64(srcH) / float64(dstH)
	for dy := 0; dy < dstH; dy++ {
		center := (float64(dy)+0.5)*scaleY - 0.5
		lo := int(math.Floor(center - support*math.Max(scaleY, 1)))
		hi := int(math.Ceil(center + support*math.Max(scaleY, 1)))
		for dx := 0; dx < dstW; dx++ {
			var sum [4]float64
			var wsum float64
			for sy := lo; sy <= hi; sy++ {
				if sy < 0 || sy >= srcH {
					continue
				}
				w := kernel((float64(sy) - center) / math.Max(scaleY, 1))
				if w == 0 {
					continue
				}
				o := (sy*dstW + dx) * 4
				sum[0] += w * mid[o+0]
				sum[1] += w * mid[o+1]
				sum[2] += w * mid[o+2]
				sum[3] += w * mid[o+3]
				wsum += w
			}
			if wsum == 0 {
				wsum = 1
			}
			dst.SetNRGBA(dx, dy, color.NRGBA{
				R: clampByte(sum[0] / wsum),
				G: clampByte(sum[1] / wsum),
				B: clampByte(sum[2] / wsum),
				A: clampByte(sum[3] / wsum),
			})
		}
	}
	return dst
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
