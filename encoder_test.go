package sixel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidFrame(w, h int, r, g, b uint8) *Frame {
	pix := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = r, g, b, 0xff
	}
	return &Frame{
		Width: w, Height: h,
		Format:           RGBA8888,
		Colorspace:       ColorspaceGamma,
		Pixels:           pix,
		TransparentIndex: -1,
	}
}

func checkerFrame(w, h int) *Frame {
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := (y*w + x) * 4
			if (x+y)%2 == 0 {
				pix[o], pix[o+1], pix[o+2] = 255, 255, 255
			}
			pix[o+3] = 0xff
		}
	}
	return &Frame{
		Width: w, Height: h,
		Format:           RGBA8888,
		Colorspace:       ColorspaceGamma,
		Pixels:           pix,
		TransparentIndex: -1,
	}
}

func TestEncodeProducesDCSWrappedStream(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.Colors = 2
	enc := NewEncoder(cfg)

	var out bytes.Buffer
	err := enc.Encode(checkerFrame(16, 12), &out)
	require.NoError(t, err)

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "\x1bP"))
	assert.True(t, strings.HasSuffix(s, "\x1b\\"))
	assert.Equal(t, stateDone, enc.state)
}

func TestEncodeFailsOnInvalidFrame(t *testing.T) {
	enc := NewEncoder(DefaultEncoderConfig())
	var out bytes.Buffer

	err := enc.Encode(&Frame{Width: 0, Height: 0}, &out)
	require.Error(t, err)
	assert.True(t, IsCode(err, BadInput))
	assert.Equal(t, stateFailed, enc.state)
	assert.NotEmpty(t, enc.LastMessage())
}

func TestEncodeForcePaletteScenarioB(t *testing.T) {
	// §8 Scenario B: 6x6 solid white, colors=256 force-palette.
	cfg := DefaultEncoderConfig()
	cfg.Colors = 256
	cfg.ForcePalette = true
	enc := NewEncoder(cfg)

	working, err := enc.prepareFrame(solidFrame(6, 6, 255, 255, 255))
	require.NoError(t, err)
	palette, err := enc.resolvePalette(working)
	require.NoError(t, err)

	assert.Equal(t, 256, palette.Active)

	ii, err := enc.reduce(working, palette)
	require.NoError(t, err)
	for _, idx := range ii.Indices {
		assert.Equal(t, uint8(0), idx)
	}
}

func TestEncoderMapPaletteBypassesPaletteBuilder(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.Colors = 16
	mapPalette := NewPalette(2)
	mapPalette.Colors = [][3]uint8{{10, 20, 30}, {200, 210, 220}}
	mapPalette.Active = 2
	mapPalette.KeyIndex = -1
	cfg.MapPalette = mapPalette

	enc := NewEncoder(cfg)
	resolved, err := enc.resolvePalette(checkerFrame(4, 4))
	require.NoError(t, err)
	assert.Same(t, mapPalette, resolved)
}

func TestEncoderStaticCachesPaletteAcrossFrames(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.Colors = 4
	cfg.Static = true
	enc := NewEncoder(cfg)

	first, err := enc.resolvePalette(checkerFrame(8, 8))
	require.NoError(t, err)
	second, err := enc.resolvePalette(solidFrame(8, 8, 1, 2, 3))
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestClipFirstExplicitOverride(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.ClipFirst = true
	enc := NewEncoder(cfg)
	assert.True(t, enc.clipFirst(solidFrame(10, 10, 0, 0, 0)))
}

func TestClipFirstNoCropNoScale(t *testing.T) {
	enc := NewEncoder(DefaultEncoderConfig())
	assert.False(t, enc.clipFirst(solidFrame(10, 10, 0, 0, 0)))
}

func TestClipFirstAutoSelectsCropFirstWhenScaleWouldDiscardCropArea(t *testing.T) {
	cfg := DefaultEncoderConfig()
	// Crop wants the bottom-right 4x4 corner of a 10x10 frame; scaling
	// first down to 5x5 would push that corner out of range.
	cfg.Crop = CropRect{Set: true, X: 6, Y: 6, W: 4, H: 4}
	cfg.Width = GeometryValue{Unit: UnitPixels, Value: 5}
	cfg.Height = GeometryValue{Unit: UnitPixels, Value: 5}
	enc := NewEncoder(cfg)

	assert.True(t, enc.clipFirst(solidFrame(10, 10, 0, 0, 0)))
}

func TestClipFirstAutoKeepsScaleFirstWhenCropStillFits(t *testing.T) {
	cfg := DefaultEncoderConfig()
	// Crop is entirely within the upscaled target, so scale-then-crop
	// loses nothing.
	cfg.Crop = CropRect{Set: true, X: 0, Y: 0, W: 4, H: 4}
	cfg.Width = GeometryValue{Unit: UnitPixels, Value: 20}
	cfg.Height = GeometryValue{Unit: UnitPixels, Value: 20}
	enc := NewEncoder(cfg)

	assert.False(t, enc.clipFirst(solidFrame(10, 10, 0, 0, 0)))
}

func TestReduceBandedMatchesSingleThreaded(t *testing.T) {
	frame := checkerFrame(20, 40)

	cfgSingle := DefaultEncoderConfig()
	cfgSingle.Colors = 2
	cfgSingle.Diffusion = DiffuseNone
	single := NewEncoder(cfgSingle)
	palette, err := single.resolvePalette(frame)
	require.NoError(t, err)
	wantIndices, err := single.reduce(frame, palette)
	require.NoError(t, err)

	cfgBanded := cfgSingle
	cfgBanded.Threads = 4
	cfgBanded.BandHeight = 6
	cfgBanded.BandOverlap = 2
	banded := NewEncoder(cfgBanded)
	gotIndices, err := banded.reduce(frame, palette)
	require.NoError(t, err)

	assert.Equal(t, wantIndices.Indices, gotIndices.Indices)
}

func TestEncodeCancelledMidStreamReportsInterrupted(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.Colors = 2
	enc := NewEncoder(cfg)
	enc.Cancel()

	var out bytes.Buffer
	err := enc.Encode(checkerFrame(64, 64), &out)
	require.Error(t, err)
	assert.True(t, IsCode(err, Interrupted))
	assert.Equal(t, stateCancelled, enc.state)
}

func TestEncodeMacroModeDefinesOnceAndInvokesEachFrame(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.Colors = 2
	cfg.UseMacro = true
	cfg.MacroNumber = 3
	enc := NewEncoder(cfg)

	var first bytes.Buffer
	require.NoError(t, enc.Encode(checkerFrame(16, 12), &first))
	assert.True(t, strings.HasPrefix(first.String(), "\x1bP3;0;1!z"))
	assert.True(t, strings.HasSuffix(first.String(), "\x1b[3*z"))

	var second bytes.Buffer
	require.NoError(t, enc.Encode(checkerFrame(16, 12), &second))
	assert.Equal(t, "\x1b[3*z", second.String())
}

func TestEncodePaletteFrameBypassesReduce(t *testing.T) {
	p := NewPalette(2)
	p.Colors = [][3]uint8{{0, 0, 0}, {255, 255, 255}}
	p.Active = 2
	p.KeyIndex = -1

	frame := &Frame{
		Width: 2, Height: 1,
		Format:           PAL8,
		Colorspace:       ColorspaceGamma,
		Pixels:           []byte{0, 1},
		Palette:          p,
		TransparentIndex: -1,
	}

	enc := NewEncoder(DefaultEncoderConfig())
	var out bytes.Buffer
	err := enc.Encode(frame, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "\x1bP")
}
