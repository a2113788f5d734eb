package sixel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaletteDefaults(t *testing.T) {
	p := NewPalette(16)
	assert.Equal(t, 16, p.Requested)
	assert.Equal(t, -1, p.KeyIndex)
	assert.Equal(t, PaletteRGB, p.Format)
	assert.Len(t, p.Colors, 0)
}

func TestPaletteValidateRejectsZeroActive(t *testing.T) {
	p := NewPalette(4)
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, IsCode(err, LogicError))
}

func TestPaletteValidateRejectsActiveExceedingRequested(t *testing.T) {
	p := NewPalette(2)
	p.Colors = [][3]uint8{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}}
	p.Active = 3
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, IsCode(err, LogicError))
}

func TestPaletteValidateRejectsRequestedOver256(t *testing.T) {
	p := NewPalette(300)
	p.Colors = [][3]uint8{{1, 1, 1}}
	p.Active = 1
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, IsCode(err, LogicError))
}

func TestPaletteValidateRejectsForceMismatch(t *testing.T) {
	p := NewPalette(4)
	p.Colors = [][3]uint8{{1, 1, 1}}
	p.Active = 1
	p.Force = true
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, IsCode(err, LogicError))
}

func TestPalettePadReplicatesLastColor(t *testing.T) {
	p := NewPalette(4)
	p.Colors = [][3]uint8{{9, 8, 7}}
	p.Pad(4)
	require.Len(t, p.Colors, 4)
	for _, c := range p.Colors {
		assert.Equal(t, [3]uint8{9, 8, 7}, c)
	}
	assert.Equal(t, 4, p.Active)
}

func TestPalettePadFromEmptyUsesBlack(t *testing.T) {
	p := NewPalette(3)
	p.Pad(3)
	require.Len(t, p.Colors, 3)
	assert.Equal(t, [3]uint8{0, 0, 0}, p.Colors[0])
}

func TestIndexImageValidateRejectsOutOfRangeIndex(t *testing.T) {
	p := NewPalette(2)
	p.Colors = [][3]uint8{{0, 0, 0}, {1, 1, 1}}
	p.Active = 2

	ii := &IndexImage{Width: 2, Height: 1, Indices: []uint8{0, 5}, Palette: p}
	err := ii.Validate()
	require.Error(t, err)
	assert.True(t, IsCode(err, LogicError))
}

func TestIndexImageValidateAcceptsInRangeIndices(t *testing.T) {
	p := NewPalette(2)
	p.Colors = [][3]uint8{{0, 0, 0}, {1, 1, 1}}
	p.Active = 2

	ii := &IndexImage{Width: 2, Height: 1, Indices: []uint8{0, 1}, Palette: p}
	assert.NoError(t, ii.Validate())
}
