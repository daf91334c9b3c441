package utils

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUtils_HexToRGBA(t *testing.T) {
	assert := assert.New(t)

	c, err := HexToRGBA("#3b82f6")
	assert.NoError(err)
	assert.Equal(color.NRGBA{R: 59, G: 130, B: 246, A: 255}, c)

	c, err = HexToRGBA("f0a")
	assert.NoError(err)
	assert.Equal(color.NRGBA{R: 0xff, G: 0x00, B: 0xaa, A: 255}, c)

	_, err = HexToRGBA("#12345")
	assert.Error(err)
	_, err = HexToRGBA("#zzzzzz")
	assert.Error(err)
}

func TestUtils_MinMaxClamp(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(2, Min(2, 5))
	assert.Equal(2, Min(5, 2))
	assert.Equal(5, Max(2, 5))
	assert.Equal(3.0, Abs(-3.0))
	assert.Equal(1.0, Clamp(4.0, 0, 1))
	assert.Equal(0.0, Clamp(-4.0, 0, 1))
	assert.Equal(0.5, Clamp(0.5, 0, 1))
	assert.True(Contains([]string{"a", "b"}, "b"))
	assert.False(Contains([]string{"a", "b"}, "c"))
}
