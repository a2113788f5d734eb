package sixel

import "github.com/libsixel-go/sixel/internal/coretypes"

// PaletteFormat controls how a Palette's colors are represented on the
// wire: as HLS triples or RGB triples (§3, §6 palette_entry grammar).
type PaletteFormat = coretypes.PaletteFormat

const (
	PaletteRGB = coretypes.PaletteRGB
	PaletteHLS = coretypes.PaletteHLS
)

// Palette is an ordered sequence of up to 256 RGB triples in the working
// colorspace (§3). It is built once by PaletteBuilder (or borrowed from a
// PAL* frame) and is immutable thereafter — in Go, shared ownership is just
// a shared pointer; there is no need for the C implementation's explicit
// refcount (see DESIGN.md).
type Palette struct {
	Colors    [][3]uint8
	Active    int // number of colors actually in use
	Requested int // number of colors the caller asked for
	KeyIndex  int // reserved transparent/background slot, or -1
	Format    PaletteFormat
	Force     bool // preserve Requested size even if fewer colors sufficed
}

// NewPalette allocates a Palette with Requested colors worth of capacity.
func NewPalette(requested int) *Palette {
	return &Palette{
		Colors:    make([][3]uint8, 0, requested),
		Requested: requested,
		KeyIndex:  -1,
		Format:    PaletteRGB,
	}
}

// Validate checks the §3 invariant 0 < active <= requested <= 256.
func (p *Palette) Validate() error {
	if p.Active <= 0 {
		return newErr(LogicError, "palette has zero active colors")
	}
	if p.Active > p.Requested {
		return newErr(LogicError, "palette active (%d) exceeds requested (%d)", p.Active, p.Requested)
	}
	if p.Requested > 256 {
		return newErr(LogicError, "palette requested (%d) exceeds 256", p.Requested)
	}
	if p.Force && p.Active != p.Requested {
		return newErr(LogicError, "force_palette set but active (%d) != requested (%d)", p.Active, p.Requested)
	}
	return nil
}

// Pad replicates the last color until len(Colors) == n, used when
// force_palette demands a palette larger than the distinct colors found
// (§4.1 edge cases).
func (p *Palette) Pad(n int) {
	if len(p.Colors) == 0 {
		p.Colors = append(p.Colors, [3]uint8{0, 0, 0})
	}
	last := p.Colors[len(p.Colors)-1]
	for len(p.Colors) < n {
		p.Colors = append(p.Colors, last)
	}
	p.Active = len(p.Colors)
}

// IndexImage is a width×height array of palette indices plus a reference to
// the Palette that defines them (§3). Produced by Dither, consumed by
// Emitter.
type IndexImage struct {
	Width, Height int
	Indices       []uint8 // len == Width*Height
	Palette       *Palette
}

// Validate checks that every index is within the palette's active range
// (§8 invariant 2).
func (ii *IndexImage) Validate() error {
	if ii.Palette == nil {
		return newErr(LogicError, "index image has no palette")
	}
	for _, idx := range ii.Indices {
		if int(idx) >= ii.Palette.Active {
			return newErr(LogicError, "index %d out of range for palette with %d active colors", idx, ii.Palette.Active)
		}
	}
	return nil
}
