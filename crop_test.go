package sixel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCropUnsetReturnsFrameUnchanged(t *testing.T) {
	f := checkerFrame(4, 4)
	got := Crop(f, CropRect{})
	assert.Same(t, f, got)
}

func TestCropExtractsSubImage(t *testing.T) {
	f := checkerFrame(8, 8)
	got := Crop(f, CropRect{Set: true, X: 2, Y: 2, W: 3, H: 3})
	require.Equal(t, 3, got.Width)
	require.Equal(t, 3, got.Height)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			wantR, wantG, wantB, wantA := f.At(2+x, 2+y)
			gotR, gotG, gotB, gotA := got.At(x, y)
			assert.Equal(t, [4]uint8{wantR, wantG, wantB, wantA}, [4]uint8{gotR, gotG, gotB, gotA})
		}
	}
}

func TestCropClampsOutOfBoundsRectangle(t *testing.T) {
	f := checkerFrame(4, 4)
	got := Crop(f, CropRect{Set: true, X: 2, Y: 2, W: 10, H: 10})
	assert.Equal(t, 2, got.Width)
	assert.Equal(t, 2, got.Height)
}

func TestCropNegativeOriginClampsToZero(t *testing.T) {
	f := checkerFrame(4, 4)
	got := Crop(f, CropRect{Set: true, X: -2, Y: -1, W: 4, H: 4})
	assert.Equal(t, 2, got.Width)
	assert.Equal(t, 3, got.Height)
}

func TestResolveGeometryBothAxesPixels(t *testing.T) {
	w, h := ResolveGeometry(100, 50, GeometryValue{Unit: UnitPixels, Value: 40}, GeometryValue{Unit: UnitPixels, Value: 30}, 1, 1)
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)
}

func TestResolveGeometryAutoHeightPreservesAspect(t *testing.T) {
	w, h := ResolveGeometry(100, 50, GeometryValue{Unit: UnitPixels, Value: 40}, GeometryValue{Unit: UnitAuto}, 1, 1)
	assert.Equal(t, 40, w)
	assert.Equal(t, 20, h)
}

func TestResolveGeometryPercent(t *testing.T) {
	w, h := ResolveGeometry(200, 100, GeometryValue{Unit: UnitPercent, Value: 50}, GeometryValue{Unit: UnitPercent, Value: 50}, 1, 1)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestResolveGeometryCellsMultipliesByCellSize(t *testing.T) {
	w, h := ResolveGeometry(200, 100, GeometryValue{Unit: UnitCells, Value: 10}, GeometryValue{Unit: UnitCells, Value: 4}, 8, 16)
	assert.Equal(t, 80, w)
	assert.Equal(t, 64, h)
}

func TestResolveGeometryBothAutoReturnsSource(t *testing.T) {
	w, h := ResolveGeometry(100, 50, GeometryValue{Unit: UnitAuto}, GeometryValue{Unit: UnitAuto}, 1, 1)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestResampleSamePixelSizeIsNoOp(t *testing.T) {
	f := checkerFrame(6, 6)
	got, err := Resample(f, 6, 6, ResampleBilinear)
	require.NoError(t, err)
	assert.Same(t, f, got)
}

func TestResampleRejectsNonPositiveTarget(t *testing.T) {
	_, err := Resample(checkerFrame(4, 4), 0, 4, ResampleBilinear)
	require.Error(t, err)
	assert.True(t, IsCode(err, BadArgument))
}

func TestResampleNearestProducesRequestedDimensions(t *testing.T) {
	got, err := Resample(checkerFrame(8, 8), 4, 4, ResampleNearest)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Width)
	assert.Equal(t, 4, got.Height)
}

func TestResampleLanczosProducesRequestedDimensions(t *testing.T) {
	got, err := Resample(checkerFrame(8, 8), 12, 6, ResampleLanczos3)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Width)
	assert.Equal(t, 6, got.Height)
}
