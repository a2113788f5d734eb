package sixel

import "github.com/libsixel-go/sixel/internal/coretypes"

// PixelFormat tags the byte layout of a Frame's pixel buffer. The set is
// closed; see §3 of the design.
type PixelFormat = coretypes.PixelFormat

const (
	RGB888   = coretypes.RGB888
	RGBA8888 = coretypes.RGBA8888
	BGR888   = coretypes.BGR888
	BGRA8888 = coretypes.BGRA8888
	ARGB8888 = coretypes.ARGB8888
	PAL1     = coretypes.PAL1
	PAL2     = coretypes.PAL2
	PAL4     = coretypes.PAL4
	PAL8     = coretypes.PAL8
	G1       = coretypes.G1
	G2       = coretypes.G2
	G4       = coretypes.G4
	G8       = coretypes.G8
)

// Colorspace tags the transfer function pixel values are expressed in.
type Colorspace = coretypes.Colorspace

const (
	ColorspaceGamma  = coretypes.ColorspaceGamma // sRGB transfer function
	ColorspaceLinear = coretypes.ColorspaceLinear
	ColorspaceOklab  = coretypes.ColorspaceOklab
	ColorspaceSMPTEC = coretypes.ColorspaceSMPTEC
)

// Frame is an immutable view of a decoded image, per §3. The Encoder may
// derive a mutated working copy (resize/crop/colorspace-convert) but never
// touches the original the caller handed it.
type Frame struct {
	Width, Height int
	Format        PixelFormat
	Colorspace    Colorspace
	Pixels        []byte

	// Palette is set only for PAL* formats: it is the frame's embedded
	// palette, which may bypass PaletteBuilder entirely (§3 invariant).
	Palette *Palette

	// TransparentIndex is the palette index treated as transparent, or -1
	// if the frame has no transparency.
	TransparentIndex int

	FrameIndex int
	LoopIndex  int
	DelayCS    int // inter-frame delay in centiseconds
}

// Validate checks the structural invariants §7 expects BadInput to catch.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return newErr(BadInput, "frame has zero or negative dimension (%dx%d)", f.Width, f.Height)
	}
	if f.Format.IsPaletted() && f.Palette == nil {
		return newErr(BadInput, "paletted frame (format=%d) has no embedded palette", f.Format)
	}
	want := f.stride() * f.Height
	if len(f.Pixels) < want {
		return newErr(BadInput, "pixel buffer too small: have %d bytes, need %d", len(f.Pixels), want)
	}
	return nil
}

// stride returns the minimum row length in bytes for byte-aligned formats,
// and the bit-packed row length (rounded up to bytes) otherwise.
func (f *Frame) stride() int {
	switch f.Format {
	case PAL1, G1:
		return (f.Width + 7) / 8
	case PAL2, G2:
		return (f.Width*2 + 7) / 8
	case PAL4, G4:
		return (f.Width*4 + 7) / 8
	default:
		return f.Width * f.Format.BytesPerPixel()
	}
}

// At returns the RGBA8888 value (in the frame's declared Colorspace) of the
// pixel at (x, y), decoding whatever PixelFormat the frame carries.
func (f *Frame) At(x, y int) (r, g, b, a uint8) {
	stride := f.stride()
	switch f.Format {
	case RGB888:
		o := y*stride + x*3
		return f.Pixels[o], f.Pixels[o+1], f.Pixels[o+2], 0xff
	case RGBA8888:
		o := y*stride + x*4
		return f.Pixels[o], f.Pixels[o+1], f.Pixels[o+2], f.Pixels[o+3]
	case BGR888:
		o := y*stride + x*3
		return f.Pixels[o+2], f.Pixels[o+1], f.Pixels[o], 0xff
	case BGRA8888:
		o := y*stride + x*4
		return f.Pixels[o+2], f.Pixels[o+1], f.Pixels[o], f.Pixels[o+3]
	case ARGB8888:
		o := y*stride + x*4
		return f.Pixels[o+1], f.Pixels[o+2], f.Pixels[o+3], f.Pixels[o]
	case PAL1, PAL2, PAL4, PAL8:
		idx := f.paletteIndexAt(x, y, stride)
		if f.Palette != nil && idx < len(f.Palette.Colors) {
			c := f.Palette.Colors[idx]
			alpha := uint8(0xff)
			if f.TransparentIndex >= 0 && idx == f.TransparentIndex {
				alpha = 0
			}
			return c[0], c[1], c[2], alpha
		}
		return 0, 0, 0, 0xff
	case G1, G2, G4, G8:
		v := f.grayIndexAt(x, y, stride)
		return v, v, v, 0xff
	default:
		return 0, 0, 0, 0xff
	}
}

func (f *Frame) paletteIndexAt(x, y, stride int) int {
	switch f.Format {
	case PAL8:
		return int(f.Pixels[y*stride+x])
	case PAL4:
		b := f.Pixels[y*stride+x/2]
		if x%2 == 0 {
			return int(b >> 4)
		}
		return int(b & 0x0f)
	case PAL2:
		b := f.Pixels[y*stride+x/4]
		shift := uint(6 - 2*(x%4))
		return int((b >> shift) & 0x03)
	case PAL1:
		b := f.Pixels[y*stride+x/8]
		shift := uint(7 - x%8)
		return int((b >> shift) & 0x01)
	}
	return 0
}

func (f *Frame) grayIndexAt(x, y, stride int) uint8 {
	switch f.Format {
	case G8:
		return f.Pixels[y*stride+x]
	case G4:
		b := f.Pixels[y*stride+x/2]
		var v uint8
		if x%2 == 0 {
			v = b >> 4
		} else {
			v = b & 0x0f
		}
		return v * 17 // scale 4-bit to 8-bit
	case G2:
		b := f.Pixels[y*stride+x/4]
		shift := uint(6 - 2*(x%4))
		v := (b >> shift) & 0x03
		return v * 85
	case G1:
		b := f.Pixels[y*stride+x/8]
		shift := uint(7 - x%8)
		v := (b >> shift) & 0x01
		return v * 255
	}
	return 0
}

// BypassesPaletteBuilder reports whether this frame's embedded palette can
// be used directly as the Palette (§3: "A Frame in PAL* form may bypass
// PaletteBuilder entirely").
func (f *Frame) BypassesPaletteBuilder() bool {
	return f.Format.IsPaletted() && f.Palette != nil
}
