// Package block tiles images onto a block-aligned raster and reorders
// block coefficients along the zigzag scan.
package block

import (
	"errors"

	"github.com/cocosip/go-mcdc/mcdc/pixel"
)

var (
	ErrInvalidBlockSize = errors.New("block_size must be 8 or 16")
	ErrInvalidGrid      = errors.New("invalid block grid")
	ErrBufferMismatch   = errors.New("buffer size mismatch")
)

// Grid describes the block-aligned padded raster derived from image dims.
type Grid struct {
	BlockSize int
	BlocksX   int
	BlocksY   int
	PaddedW   int
	PaddedH   int
}

// MakeGrid derives the grid covering a width x height image with
// blockSize-aligned padding.
func MakeGrid(width, height, blockSize int) (Grid, error) {
	if blockSize != 8 && blockSize != 16 {
		return Grid{}, ErrInvalidBlockSize
	}
	if width <= 0 || height <= 0 {
		return Grid{}, pixel.ErrInvalidDimensions
	}
	g := Grid{
		BlockSize: blockSize,
		BlocksX:   (width + blockSize - 1) / blockSize,
		BlocksY:   (height + blockSize - 1) / blockSize,
	}
	g.PaddedW = g.BlocksX * blockSize
	g.PaddedH = g.BlocksY * blockSize
	return g, nil
}

// TileToBlocks places the image at the top-left of a zero-filled
// PaddedW x PaddedH raster. The image must already be in the domain the
// downstream transform expects; padding samples stay zero.
func TileToBlocks(im *pixel.Image, g Grid) ([]int32, error) {
	if im.Channels != 1 {
		return nil, pixel.ErrInvalidChannels
	}
	if im.Width <= 0 || im.Height <= 0 {
		return nil, pixel.ErrInvalidDimensions
	}
	if len(im.Pixels) != im.Width*im.Height {
		return nil, pixel.ErrBufferMismatch
	}
	if g.PaddedW <= 0 || g.PaddedH <= 0 {
		return nil, ErrInvalidGrid
	}

	padded := make([]int32, g.PaddedW*g.PaddedH)
	for y := 0; y < im.Height; y++ {
		copy(padded[y*g.PaddedW:y*g.PaddedW+im.Width], im.Pixels[y*im.Width:(y+1)*im.Width])
	}
	return padded, nil
}

// UntileFromBlocks copies the top-left Width x Height sub-rectangle of the
// padded raster back into the image, discarding padding.
func UntileFromBlocks(im *pixel.Image, g Grid, padded []int32) error {
	if im.Channels != 1 {
		return pixel.ErrInvalidChannels
	}
	if im.Width <= 0 || im.Height <= 0 {
		return pixel.ErrInvalidDimensions
	}
	if len(padded) != g.PaddedW*g.PaddedH {
		return ErrBufferMismatch
	}

	if len(im.Pixels) != im.Width*im.Height {
		im.Pixels = make([]int32, im.Width*im.Height)
	}
	for y := 0; y < im.Height; y++ {
		copy(im.Pixels[y*im.Width:(y+1)*im.Width], padded[y*g.PaddedW:y*g.PaddedW+im.Width])
	}
	return nil
}
