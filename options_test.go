package sixel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOptColorsParsesForcePaletteSuffix(t *testing.T) {
	var c EncoderConfig
	require.NoError(t, c.SetOpt("colors", "64!"))
	assert.Equal(t, 64, c.Colors)
	assert.True(t, c.ForcePalette)
}

func TestSetOptColorsRejectsOutOfRange(t *testing.T) {
	var c EncoderConfig
	err := c.SetOpt("colors", "0")
	require.Error(t, err)
	assert.True(t, IsCode(err, BadArgument))

	err = c.SetOpt("colors", "257")
	require.Error(t, err)
	assert.True(t, IsCode(err, BadArgument))
}

func TestSetOptEnumExactMatch(t *testing.T) {
	var c EncoderConfig
	require.NoError(t, c.SetOpt("quantize_model", "kmeans"))
	assert.Equal(t, QuantizeKMeans, c.QuantizeModel)
}

func TestSetOptEnumUniquePrefixMatch(t *testing.T) {
	var c EncoderConfig
	require.NoError(t, c.SetOpt("diffusion", "atk"))
	assert.Equal(t, DiffuseAtkinson, c.Diffusion)
}

func TestSetOptEnumAmbiguousPrefixErrors(t *testing.T) {
	var c EncoderConfig
	err := c.SetOpt("diffusion", "s")
	require.Error(t, err)
	assert.True(t, IsCode(err, BadArgument))
	assert.Contains(t, err.Error(), "sierra1")
}

func TestSetOptUnknownFlagErrors(t *testing.T) {
	var c EncoderConfig
	err := c.SetOpt("not_a_real_option", "1")
	require.Error(t, err)
	assert.True(t, IsCode(err, BadArgument))
}

func TestSetOptBoolFlags(t *testing.T) {
	var c EncoderConfig
	require.NoError(t, c.SetOpt("penetrate", "true"))
	assert.True(t, c.Penetrate)
	require.NoError(t, c.SetOpt("optimize_palette", "1"))
	assert.True(t, c.OptimizePalette)
	require.NoError(t, c.SetOpt("clip_first", "true"))
	assert.True(t, c.ClipFirst)
}

func TestSetOptComplexionScore(t *testing.T) {
	var c EncoderConfig
	require.NoError(t, c.SetOpt("complexion_score", "3"))
	assert.Equal(t, 3, c.ComplexionScore)

	err := c.SetOpt("complexion_score", "-1")
	require.Error(t, err)
	assert.True(t, IsCode(err, BadArgument))
}

func TestSetOptGeometryValues(t *testing.T) {
	var c EncoderConfig
	require.NoError(t, c.SetOpt("width", "50%"))
	assert.Equal(t, GeometryValue{Unit: UnitPercent, Value: 50}, c.Width)

	require.NoError(t, c.SetOpt("height", "10c"))
	assert.Equal(t, GeometryValue{Unit: UnitCells, Value: 10}, c.Height)
}

func TestSetOptCropRect(t *testing.T) {
	var c EncoderConfig
	require.NoError(t, c.SetOpt("crop", "10x20+1+2"))
	assert.Equal(t, CropRect{W: 10, H: 20, X: 1, Y: 2, Set: true}, c.Crop)
}

func TestSetOptBGColor(t *testing.T) {
	var c EncoderConfig
	require.NoError(t, c.SetOpt("bgcolor", "#ff0000"))
	require.NotNil(t, c.BGColor)
	assert.Equal(t, [3]uint8{255, 0, 0}, *c.BGColor)
}

func TestSetOptSevenEightBit(t *testing.T) {
	var c EncoderConfig
	require.NoError(t, c.SetOpt("8bit", ""))
	assert.False(t, c.SevenBit)
	require.NoError(t, c.SetOpt("7bit", ""))
	assert.True(t, c.SevenBit)
}

func TestDefaultEncoderConfigHonorsEnvironment(t *testing.T) {
	t.Setenv("SIXEL_COLORS", "17")
	t.Setenv("SIXEL_THREADS", "3")
	c := DefaultEncoderConfig()
	assert.Equal(t, 17, c.Colors)
	assert.Equal(t, 3, c.Threads)
}
