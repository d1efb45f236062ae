// Package mcdc implements the MCDC lossy transform codec for single-channel
// medical images: level shift, 8x8 tiling, orthonormal 2-D DCT, uniform
// scalar quantization, zigzag scan, zero run-length coding and canonical
// Huffman coding into a self-describing little-endian container.
package mcdc

import (
	"github.com/cocosip/go-mcdc/mcdc/block"
	"github.com/cocosip/go-mcdc/mcdc/entropy"
	"github.com/cocosip/go-mcdc/mcdc/format"
	"github.com/cocosip/go-mcdc/mcdc/pixel"
	"github.com/cocosip/go-mcdc/mcdc/quant"
	"github.com/cocosip/go-mcdc/mcdc/transform"
)

// blockSize is the only block size the encoder writes. The container
// reserves 16 but no encode path emits it.
const blockSize = 8

// Encode compresses a grayscale image into an MCDC container at the given
// quality (1-100). The input image is not modified.
func Encode(im *pixel.Image, quality int) ([]byte, error) {
	if im.Channels != 1 {
		return nil, ErrInvalidChannels
	}
	if im.Width <= 0 || im.Height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if len(im.Pixels) != im.Width*im.Height {
		return nil, ErrBufferMismatch
	}
	if quality < 1 || quality > 100 {
		return nil, ErrInvalidQuality
	}

	// Work on a copy; the level shift mutates pixels and signedness.
	work := *im
	work.Pixels = make([]int32, len(im.Pixels))
	copy(work.Pixels, im.Pixels)

	levelShiftApplied := !work.Signed
	if err := pixel.ApplyLevelShift(&work); err != nil {
		return nil, err
	}

	// Shift first, then tile: padding samples are zeros in the shifted
	// domain, i.e. the unsigned midpoint of the original.
	grid, err := block.MakeGrid(work.Width, work.Height, blockSize)
	if err != nil {
		return nil, err
	}
	blocks, err := block.TileToBlocks(&work, grid)
	if err != nil {
		return nil, err
	}

	coeffs, err := transform.ForwardBlocks(blocks, blockSize)
	if err != nil {
		return nil, err
	}
	qcoeff, err := quant.Quantize(coeffs, blockSize, quality)
	if err != nil {
		return nil, err
	}
	seq, err := block.ZigzagScan(qcoeff, blockSize)
	if err != nil {
		return nil, err
	}
	pairs, err := entropy.EncodeRLE(seq, blockSize)
	if err != nil {
		return nil, err
	}
	symbols := entropy.PackSymbols(pairs)

	table, huffBits, err := entropy.EncodeSymbols(symbols)
	if err != nil {
		return nil, err
	}
	entries := table.Entries()
	if len(entries) == 0 {
		return nil, ErrNoUsedSymbols
	}

	var flags uint8
	if levelShiftApplied {
		flags |= format.FlagLevelShift
	}
	var isSigned uint8
	if im.Signed {
		isSigned = 1
	}

	w := format.NewWriter()
	format.WriteHeader(w, format.Header{
		Version:       format.Version,
		HeaderBytes:   format.HeaderBytes,
		Width:         uint32(im.Width),
		Height:        uint32(im.Height),
		Channels:      1,
		BitsAllocated: uint16(im.BitsAllocated),
		BitsStored:    uint16(im.BitsStored),
		IsSigned:      isSigned,
		Flags:         flags,
		BlockSize:     blockSize,
		Quality:       uint16(quality),
		PayloadBytes:  0, // patched below
	})

	// Payload: [symbol_count][used_symbol_count][entries][huffman bits]
	w.WriteU32(uint32(len(symbols)))
	w.WriteU32(uint32(len(entries)))
	for _, e := range entries {
		w.WriteU32(e.Symbol)
		w.WriteU8(e.Len)
	}
	w.WriteBytes(huffBits)

	payloadBytes := uint32(w.Len() - format.HeaderBytes)
	if err := w.PatchU32(format.PayloadBytesOffset, payloadBytes); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
