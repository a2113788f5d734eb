package sixel

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/libsixel-go/sixel/internal/bandpool"
	"github.com/libsixel-go/sixel/internal/dither"
	"github.com/libsixel-go/sixel/internal/emitter"
)

// encoderState names a step of §3's state machine. Encode walks these in
// order and never revisits one once it has moved on. statePaletteSolve is
// skipped when the palette comes from the frame itself, from MapPalette or
// from the static cache. Crop and Scale may run in either order depending
// on ClipFirst.
type encoderState int

const (
	stateInit encoderState = iota
	stateCropScale
	stateColorspace
	statePaletteHistogram
	statePaletteSolve
	statePaletteApply
	stateEncode
	stateDone
	stateFailed
	stateCancelled
)

// Encoder runs the full pipeline of §3/§4: geometry, colorspace, palette
// construction, dithering, and SIXEL emission. One Encoder may be reused
// across frames of an animation; its palette cache is only ever touched at
// encode() call boundaries (§5 "never during a band").
type Encoder struct {
	Config EncoderConfig

	mu            sync.Mutex
	state         encoderState
	cachedPalette *Palette
	lastMessage   string
	cancelFlag    atomic.Bool
	definedMacros map[int]bool
}

// NewEncoder builds an Encoder with the given configuration.
func NewEncoder(cfg EncoderConfig) *Encoder {
	return &Encoder{Config: cfg, state: stateInit}
}

// Cancel requests the current or next Encode call to abort at the next
// safe point (§5 Cancellation).
func (e *Encoder) Cancel() { e.cancelFlag.Store(true) }

// LastMessage returns the human-readable diagnostic from the most recent
// failure, if any. Never used for control flow (§7).
func (e *Encoder) LastMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastMessage
}

func (e *Encoder) fail(err error) error {
	e.mu.Lock()
	e.state = stateFailed
	if err != nil {
		e.lastMessage = err.Error()
	}
	e.mu.Unlock()
	return err
}

// Encode runs the pipeline for a single frame and writes the resulting
// SIXEL stream through w. For an animated source, call Encode once per
// frame on the same Encoder so the palette cache (when cfg.Static is set)
// is reused across frames.
func (e *Encoder) Encode(frame *Frame, w io.Writer) error {
	e.mu.Lock()
	e.state = stateInit
	e.mu.Unlock()

	if err := frame.Validate(); err != nil {
		return e.fail(err)
	}

	working, err := e.prepareFrame(frame)
	if err != nil {
		return e.fail(err)
	}

	palette, err := e.resolvePalette(working)
	if err != nil {
		return e.fail(err)
	}

	ii, err := e.reduce(working, palette)
	if err != nil {
		return e.fail(err)
	}

	e.mu.Lock()
	e.state = stateEncode
	e.mu.Unlock()

	if err := e.emit(ii, w); err != nil {
		if IsCode(err, Interrupted) {
			e.mu.Lock()
			e.state = stateCancelled
			e.mu.Unlock()
			return err
		}
		return e.fail(err)
	}

	e.mu.Lock()
	e.state = stateDone
	e.mu.Unlock()
	return nil
}

// prepareFrame runs the Crop/Scale and colorspace stages, honoring
// ClipFirst's ordering choice (§4.4).
func (e *Encoder) prepareFrame(frame *Frame) (*Frame, error) {
	e.mu.Lock()
	e.state = stateCropScale
	e.mu.Unlock()

	f := frame
	doCrop := func(f *Frame) *Frame { return Crop(f, e.Config.Crop) }
	doScale := func(f *Frame) (*Frame, error) {
		if e.Config.Width.Unit == UnitAuto && e.Config.Height.Unit == UnitAuto {
			return f, nil
		}
		w, h := ResolveGeometry(f.Width, f.Height, e.Config.Width, e.Config.Height, 1, 1)
		return Resample(f, w, h, e.Config.Resampling)
	}

	if e.clipFirst(frame) {
		f = doCrop(f)
		var err error
		f, err = doScale(f)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		f, err = doScale(f)
		if err != nil {
			return nil, err
		}
		f = doCrop(f)
	}

	e.mu.Lock()
	e.state = stateColorspace
	e.mu.Unlock()

	if f.Colorspace != e.Config.WorkingColorspace {
		f = convertFrameColorspace(f, e.Config.WorkingColorspace)
	}
	return f, nil
}

// clipFirst decides crop/scale order per §4.4: "swapped (clip_first =
// true) when the user supplied both and the resize would discard pixels
// the crop would have kept." cfg.ClipFirst, when explicitly set, is an
// override; otherwise this picks whichever order keeps all of the crop
// rectangle's pixels in the final frame.
func (e *Encoder) clipFirst(frame *Frame) bool {
	if e.Config.ClipFirst {
		return true
	}
	if !e.Config.Crop.Set {
		return false
	}
	if e.Config.Width.Unit == UnitAuto && e.Config.Height.Unit == UnitAuto {
		return false
	}
	w, h := ResolveGeometry(frame.Width, frame.Height, e.Config.Width, e.Config.Height, 1, 1)
	if w >= frame.Width || h >= frame.Height {
		return false
	}
	cropRight := e.Config.Crop.X + e.Config.Crop.W
	cropBottom := e.Config.Crop.Y + e.Config.Crop.H
	scaleThenCropDiscards := cropRight > w || cropBottom > h
	return scaleThenCropDiscards
}

func convertFrameColorspace(f *Frame, to Colorspace) *Frame {
	out := &Frame{
		Width: f.Width, Height: f.Height,
		Format: RGBA8888, Colorspace: to,
		Pixels:           make([]byte, f.Width*f.Height*4),
		TransparentIndex: -1,
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b, a := f.At(x, y)
			c := ConvertColorspace([3]uint8{r, g, b}, f.Colorspace, to)
			o := (y*f.Width + x) * 4
			out.Pixels[o], out.Pixels[o+1], out.Pixels[o+2], out.Pixels[o+3] = c[0], c[1], c[2], a
		}
	}
	return out
}

// resolvePalette implements §4.1's bypass rule and the `static` cache
// (§9): once built, a static-mode palette is reused for every subsequent
// frame on this Encoder rather than rebuilt.
func (e *Encoder) resolvePalette(f *Frame) (*Palette, error) {
	e.mu.Lock()
	e.state = statePaletteHistogram
	e.mu.Unlock()

	if f.BypassesPaletteBuilder() {
		return f.Palette, nil
	}
	if e.Config.MapPalette != nil {
		return e.Config.MapPalette, nil
	}

	e.mu.Lock()
	cached := e.cachedPalette
	e.mu.Unlock()
	if e.Config.Static && cached != nil {
		return cached, nil
	}

	e.mu.Lock()
	e.state = statePaletteSolve
	e.mu.Unlock()

	p, err := BuildPalette([]*Frame{f}, e.Config)
	if err != nil {
		return nil, err
	}

	if e.Config.Static {
		e.mu.Lock()
		e.cachedPalette = p
		e.mu.Unlock()
	}
	return p, nil
}

// reduce runs Dither, optionally banding the work across e.Config.Threads
// workers per §5.
func (e *Encoder) reduce(f *Frame, palette *Palette) (*IndexImage, error) {
	e.mu.Lock()
	e.state = statePaletteApply
	e.mu.Unlock()

	if f.Format.IsPaletted() && f.Palette == palette {
		return &IndexImage{
			Width:   f.Width,
			Height:  f.Height,
			Indices: nativeIndices(f),
			Palette: palette,
		}, nil
	}

	threads := e.Config.Threads
	if threads <= 1 {
		return Reduce(f, palette, e.Config, nil)
	}
	return e.reduceBanded(f, palette, threads)
}

func nativeIndices(f *Frame) []uint8 {
	out := make([]uint8, f.Width*f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			out[y*f.Width+x] = uint8(f.paletteIndexAt(x, y, f.stride()))
		}
	}
	return out
}

// reduceBanded splits f into horizontal bands (§5) and dithers each band
// concurrently; burn-in overlap rows let each band's diffusion kernel
// settle before its real output rows, so the stitched result matches the
// single-threaded pass whenever overlap covers the kernel's reach.
func (e *Encoder) reduceBanded(f *Frame, palette *Palette, threads int) (*IndexImage, error) {
	bandHeight := e.Config.BandHeight
	if bandHeight <= 0 {
		bandHeight = 64
	}
	bands := bandpool.Plan(f.Height, bandHeight, e.Config.BandOverlap)

	out := make([]uint8, f.Width*f.Height)
	_, err := bandpool.Run(threads, bands, func(b bandpool.Band) (any, error) {
		sub := dither.Source{
			Width:  f.Width,
			Height: b.Top + b.Height - b.OverlapTop,
			At: func(x, y int) (uint8, uint8, uint8, uint8) {
				return f.At(x, y+b.OverlapTop)
			},
		}
		keyIdx := -1
		if palette.KeyIndex >= 0 {
			keyIdx = palette.KeyIndex
		}
		res := dither.Apply(sub, palette.Colors, dither.Options{
			Diffusion:       e.Config.Diffusion,
			Scan:            e.Config.DiffusionScan,
			Carry:           e.Config.DiffusionCarry,
			ComplexionScore: e.Config.ComplexionScore,
			KeyIndex:        keyIdx,
		})
		realTop := b.Top - b.OverlapTop
		for row := 0; row < b.Height; row++ {
			srcRow := realTop + row
			copy(out[(b.Top+row)*f.Width:(b.Top+row+1)*f.Width], res.Indices[srcRow*f.Width:(srcRow+1)*f.Width])
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	ii := &IndexImage{Width: f.Width, Height: f.Height, Indices: out, Palette: palette}
	if err := ii.Validate(); err != nil {
		return nil, err
	}
	return ii, nil
}

func (e *Encoder) emit(ii *IndexImage, w io.Writer) error {
	keyIdx := -1
	if ii.Palette.KeyIndex >= 0 {
		keyIdx = ii.Palette.KeyIndex
	}
	defineMacro := false
	if e.Config.UseMacro {
		if e.definedMacros == nil {
			e.definedMacros = make(map[int]bool)
		}
		if !e.definedMacros[e.Config.MacroNumber] {
			defineMacro = true
			e.definedMacros[e.Config.MacroNumber] = true
		}
	}
	opts := emitter.Options{
		SevenBit:     e.Config.SevenBit,
		GRILimit:     e.Config.GRILimit,
		ORMode:       e.Config.ORMode,
		EncodePolicy: e.Config.EncodePolicy,
		PaletteType:  e.Config.PaletteType,
		MacroNumber:  e.Config.MacroNumber,
		UseMacro:     e.Config.UseMacro,
		DefineMacro:  defineMacro,
		Penetrate:    e.Config.Penetrate,
	}
	colors := ii.Palette.Colors
	if e.Config.OutputColorspace != e.Config.WorkingColorspace {
		colors = make([][3]uint8, len(ii.Palette.Colors))
		for i, c := range ii.Palette.Colors {
			colors[i] = ConvertColorspace(c, e.Config.WorkingColorspace, e.Config.OutputColorspace)
		}
	}
	eii := emitter.IndexImage{
		Width: ii.Width, Height: ii.Height,
		Indices:  ii.Indices,
		Colors:   colors,
		KeyIndex: keyIdx,
	}
	err := emitter.Emit(eii, opts, func(p []byte) (int, error) {
		return w.Write(p)
	}, e.cancelFlag.Load)
	if err == nil {
		return nil
	}
	if ee, ok := err.(*emitter.Err); ok {
		if ee.Runtime {
			return runtimeErr(0, "%v", ee.Unwrap())
		}
		return newErr(Interrupted, "encode cancelled")
	}
	return wrapErr(RuntimeError, err, "emit failed")
}
