package mcdc

import (
	"github.com/cocosip/go-mcdc/mcdc/block"
	"github.com/cocosip/go-mcdc/mcdc/entropy"
	"github.com/cocosip/go-mcdc/mcdc/format"
	"github.com/cocosip/go-mcdc/mcdc/pixel"
	"github.com/cocosip/go-mcdc/mcdc/quant"
	"github.com/cocosip/go-mcdc/mcdc/transform"
)

// Decode reconstructs an image from MCDC container bytes.
func Decode(data []byte) (*pixel.Image, error) {
	hdr, err := format.ReadHeader(data)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) < uint64(hdr.HeaderBytes)+uint64(hdr.PayloadBytes) {
		return nil, format.ErrTruncatedPayload
	}

	payload := data[hdr.HeaderBytes : uint32(hdr.HeaderBytes)+hdr.PayloadBytes]
	r := format.NewReader(payload)

	symbolCount, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	usedSymbolCount, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if usedSymbolCount == 0 {
		return nil, ErrNoTableEntries
	}
	if r.Remaining() < int(usedSymbolCount)*5 {
		return nil, ErrTableTruncated
	}
	entries := make([]entropy.LengthEntry, usedSymbolCount)
	for i := range entries {
		sym, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		length, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		if length == 0 || length > 32 {
			return nil, entropy.ErrInvalidCodeLength
		}
		entries[i] = entropy.LengthEntry{Symbol: sym, Len: length}
	}
	huffBits, err := r.ReadBytes(r.Remaining())
	if err != nil {
		return nil, err
	}

	table, err := entropy.TableFromLengths(entries)
	if err != nil {
		return nil, err
	}
	symbols, err := entropy.DecodeSymbols(huffBits, table, int(symbolCount))
	if err != nil {
		return nil, err
	}
	pairs := entropy.UnpackSymbols(symbols)

	bs := int(hdr.BlockSize)
	grid, err := block.MakeGrid(int(hdr.Width), int(hdr.Height), bs)
	if err != nil {
		return nil, err
	}
	totalCoeffs := grid.BlocksX * grid.BlocksY * bs * bs

	seq, err := entropy.DecodeRLE(pairs, bs, totalCoeffs)
	if err != nil {
		return nil, err
	}
	qcoeff, err := block.InverseZigzag(seq, bs)
	if err != nil {
		return nil, err
	}
	coeffs, err := quant.Dequantize(qcoeff, bs, int(hdr.Quality))
	if err != nil {
		return nil, err
	}
	blocks, err := transform.InverseBlocks(coeffs, bs)
	if err != nil {
		return nil, err
	}

	im := &pixel.Image{
		Width:         int(hdr.Width),
		Height:        int(hdr.Height),
		Channels:      int(hdr.Channels),
		BitsAllocated: int(hdr.BitsAllocated),
		BitsStored:    int(hdr.BitsStored),
		Signed:        hdr.IsSigned != 0,
	}
	if err := block.UntileFromBlocks(im, grid, blocks); err != nil {
		return nil, err
	}

	// The flag decides whether to invert the shift; is_signed only
	// records what the original input looked like.
	if hdr.Flags&format.FlagLevelShift != 0 {
		if err := pixel.InverseLevelShift(im); err != nil {
			return nil, err
		}
	}

	if len(im.Pixels) != im.Width*im.Height {
		return nil, ErrPixelCount
	}
	return im, nil
}
