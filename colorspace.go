package sixel

import (
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ParseColor accepts the §6 bgcolor grammar: #rgb, #rrggbb, #rrrgggbbb,
// #rrrrggggbbbb, rgb:r/g/b, or a standard library color name.
func ParseColor(s string) ([3]uint8, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHexColor(s[1:])
	case strings.HasPrefix(s, "rgb:"):
		return parseRGBColon(s[4:])
	default:
		if rgb, ok := namedColors[strings.ToLower(s)]; ok {
			return rgb, nil
		}
		return [3]uint8{}, newErr(BadArgument, "unrecognized color %q", s)
	}
}

func parseHexColor(hex string) ([3]uint8, error) {
	n := len(hex)
	switch n {
	case 3: // #rgb -> each nibble replicated
		var out [3]uint8
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(hex[i:i+1], 16, 8)
			if err != nil {
				return out, newErr(BadArgument, "invalid hex color %q", hex)
			}
			out[i] = uint8(v)*17
		}
		return out, nil
	case 6: // #rrggbb
		var out [3]uint8
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
			if err != nil {
				return out, newErr(BadArgument, "invalid hex color %q", hex)
			}
			out[i] = uint8(v)
		}
		return out, nil
	case 9, 12: // #rrrgggbbb (3 digits/channel) or #rrrrggggbbbb (4 digits/channel)
		digits := n / 3
		var out [3]uint8
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(hex[i*digits:(i+1)*digits], 16, 32)
			if err != nil {
				return out, newErr(BadArgument, "invalid hex color %q", hex)
			}
			max := uint64(1)<<(4*uint(digits)) - 1
			out[i] = uint8(uint64(v) * 255 / max)
		}
		return out, nil
	default:
		return [3]uint8{}, newErr(BadArgument, "invalid hex color length %q", hex)
	}
}

func parseRGBColon(body string) ([3]uint8, error) {
	parts := strings.Split(body, "/")
	if len(parts) != 3 {
		return [3]uint8{}, newErr(BadArgument, "invalid rgb: color %q", body)
	}
	var out [3]uint8
	for i, p := range parts {
		max := uint64(1)<<(4*uint(len(p))) - 1
		v, err := strconv.ParseUint(p, 16, 32)
		if err != nil {
			return out, newErr(BadArgument, "invalid rgb: color component %q", p)
		}
		out[i] = uint8(uint64(v) * 255 / max)
	}
	return out, nil
}

var namedColors = map[string][3]uint8{
	"black":   {0, 0, 0},
	"white":   {255, 255, 255},
	"red":     {255, 0, 0},
	"green":   {0, 255, 0},
	"blue":    {0, 0, 255},
	"yellow":  {255, 255, 0},
	"cyan":    {0, 255, 255},
	"magenta": {255, 0, 255},
	"gray":    {128, 128, 128},
	"grey":    {128, 128, 128},
}

// ConvertColorspace maps an RGB triple from one working colorspace to
// another. gamma<->linear delegates to go-colorful's sRGB transfer
// function (§9: "working and output colorspaces are independent").
func ConvertColorspace(c [3]uint8, from, to Colorspace) [3]uint8 {
	if from == to {
		return c
	}
	lr, lg, lb := toLinear(c, from)
	return fromLinear(lr, lg, lb, to)
}

// toLinear converts c (in colorspace cs) to linear-light RGB in [0,1].
func toLinear(c [3]uint8, cs Colorspace) (r, g, b float64) {
	switch cs {
	case ColorspaceLinear:
		return float64(c[0]) / 255, float64(c[1]) / 255, float64(c[2]) / 255
	case ColorspaceOklab:
		return oklabToLinearSRGB(c)
	case ColorspaceSMPTEC:
		return smpteCToLinear(c)
	default: // ColorspaceGamma (sRGB)
		col := colorful.Color{R: float64(c[0]) / 255, G: float64(c[1]) / 255, B: float64(c[2]) / 255}
		return col.LinearRgb()
	}
}

// fromLinear converts linear-light RGB back into colorspace cs.
func fromLinear(r, g, b float64, cs Colorspace) [3]uint8 {
	clampByte := func(v float64) uint8 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 255
		}
		return uint8(math.Round(v * 255))
	}
	switch cs {
	case ColorspaceLinear:
		return [3]uint8{clampByte(r), clampByte(g), clampByte(b)}
	case ColorspaceOklab:
		return linearSRGBToOklabByte(r, g, b)
	case ColorspaceSMPTEC:
		return linearToSMPTEC(r, g, b)
	default:
		col := colorful.LinearRgb(r, g, b)
		return [3]uint8{clampByte(col.R), clampByte(col.G), clampByte(col.B)}
	}
}

// smpteCToLinear approximates the SMPTE-C (NTSC) 2.2-gamma transfer curve,
// distinct from sRGB's piecewise curve (§6 output_colorspace).
func smpteCToLinear(c [3]uint8) (r, g, b float64) {
	dec := func(v uint8) float64 {
		return math.Pow(float64(v)/255, 2.2)
	}
	return dec(c[0]), dec(c[1]), dec(c[2])
}

func linearToSMPTEC(r, g, b float64) [3]uint8 {
	enc := func(v float64) uint8 {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return uint8(math.Round(math.Pow(v, 1/2.2) * 255))
	}
	return [3]uint8{enc(r), enc(g), enc(b)}
}

// Oklab conversion follows Björn Ottosson's published matrices. No library
// in the retrieval pack implements Oklab, so this is math, ported directly
// (see DESIGN.md).
func oklabToLinearSRGB(c [3]uint8) (r, g, b float64) {
	// c holds L,a,b packed into byte range; unpack to the working ranges
	// libsixel uses internally (L in [0,1], a/b in [-0.4,0.4]).
	L := float64(c[0]) / 255
	a := (float64(c[1])/255)*0.8 - 0.4
	bb := (float64(c[2])/255)*0.8 - 0.4

	l_ := L + 0.3963377774*a + 0.2158037573*bb
	m_ := L - 0.1055613458*a - 0.0638541728*bb
	s_ := L - 0.0894841775*a - 1.2914855480*bb

	l := l_ * l_ * l_
	m := m_ * m_ * m_
	s := s_ * s_ * s_

	r = +4.0767416621*l - 3.3077115913*m + 0.2309699292*s
	g = -1.2684380046*l + 2.6097574011*m - 0.3413193965*s
	b = -0.0041960863*l - 0.7034186147*m + 1.7076147010*s
	return
}

func linearSRGBToOklabByte(r, g, b float64) [3]uint8 {
	l := 0.4122214708*r + 0.5363325363*g + 0.0514459929*b
	m := 0.2119034982*r + 0.6806995451*g + 0.1073969566*b
	s := 0.0883024619*r + 0.2817188376*g + 0.6299787005*b

	l_ := cbrt(l)
	m_ := cbrt(m)
	s_ := cbrt(s)

	L := 0.2104542553*l_ + 0.7936177850*m_ - 0.0040720468*s_
	a := 1.9779984951*l_ - 2.4285922050*m_ + 0.4505937099*s_
	bb := 0.0259040371*l_ + 0.7827717662*m_ - 0.8086757660*s_

	clamp01 := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	return [3]uint8{
		uint8(math.Round(clamp01(L) * 255)),
		uint8(math.Round(clamp01((a+0.4)/0.8) * 255)),
		uint8(math.Round(clamp01((bb+0.4)/0.8) * 255)),
	}
}

func cbrt(v float64) float64 {
	if v < 0 {
		return -math.Pow(-v, 1.0/3.0)
	}
	return math.Pow(v, 1.0/3.0)
}

// ToNRGBA renders an IndexImage back into a standard library image, used by
// round-trip tests (§8 RT-1).
func (ii *IndexImage) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, ii.Width, ii.Height))
	for i, idx := range ii.Indices {
		c := ii.Palette.Colors[idx]
		img.Set(i%ii.Width, i/ii.Width, color.NRGBA{R: c[0], G: c[1], B: c[2], A: 0xff})
	}
	return img
}
