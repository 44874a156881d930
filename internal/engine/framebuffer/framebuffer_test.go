package framebuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlipRows(t *testing.T) {
	// 1x3, bottom row first as GL returns it.
	pixels := []byte{
		1, 1, 1, 255,
		2, 2, 2, 255,
		3, 3, 3, 255,
	}
	img := FlipRows(pixels, 1, 3)

	assert.Equal(t, uint8(3), img.NRGBAAt(0, 0).R)
	assert.Equal(t, uint8(2), img.NRGBAAt(0, 1).R)
	assert.Equal(t, uint8(1), img.NRGBAAt(0, 2).R)
}
