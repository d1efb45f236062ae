// Package entropy implements the zero run-length coder, its 32-bit symbol
// packing and the canonical Huffman coder for the MCDC payload.
package entropy

import "math"

// Pair is one run-length element: Run zeros followed by Value.
type Pair struct {
	Value int16
	Run   uint16
}

// EncodeRLE turns a block-contiguous zigzag sequence into (value, run)
// pairs. Per block: the DC coefficient is emitted verbatim as (dc, 0); AC
// zeros accumulate into the run counter of the next non-zero value. A run
// reaching 0xFFFF is flushed as (0, 0xFFFF), which accounts for 65536 zeros
// (the pair's own zero value included). A trailing run of zeros is emitted
// as (0, run-1) so that decoding yields exactly run zeros.
func EncodeRLE(seq []int16, blockSize int) ([]Pair, error) {
	if blockSize != 8 && blockSize != 16 {
		return nil, ErrInvalidBlockSize
	}
	elems := blockSize * blockSize
	if len(seq)%elems != 0 {
		return nil, ErrBufferMismatch
	}

	pairs := make([]Pair, 0, len(seq))
	for i := 0; i < len(seq); {
		dc := seq[i]
		i++
		pairs = append(pairs, Pair{Value: dc, Run: 0})

		var run uint16
		blockEnd := i + elems - 1
		for ; i < blockEnd; i++ {
			v := seq[i]
			if v == 0 {
				if run == math.MaxUint16 {
					// the current zero is the pair's own value
					pairs = append(pairs, Pair{Value: 0, Run: run})
					run = 0
				} else {
					run++
				}
			} else {
				pairs = append(pairs, Pair{Value: v, Run: run})
				run = 0
			}
		}
		if run > 0 {
			pairs = append(pairs, Pair{Value: 0, Run: run - 1})
		}
	}
	return pairs, nil
}

// DecodeRLE expands pairs back into a coefficient sequence of exactly
// totalCoeffs elements. The expansion is block-agnostic: each pair emits
// Run zeros followed by Value.
func DecodeRLE(pairs []Pair, blockSize, totalCoeffs int) ([]int16, error) {
	if blockSize != 8 && blockSize != 16 {
		return nil, ErrInvalidBlockSize
	}

	seq := make([]int16, 0, totalCoeffs)
	for _, p := range pairs {
		for j := 0; j < int(p.Run); j++ {
			seq = append(seq, 0)
		}
		seq = append(seq, p.Value)
		if len(seq) > totalCoeffs {
			return nil, ErrRLEOvershoot
		}
	}
	if len(seq) != totalCoeffs {
		return nil, ErrRLEUndershoot
	}
	return seq, nil
}

// PackSymbols packs each pair into a 32-bit symbol: (run << 16) | value bits.
func PackSymbols(pairs []Pair) []uint32 {
	symbols := make([]uint32, len(pairs))
	for i, p := range pairs {
		symbols[i] = uint32(p.Run)<<16 | uint32(uint16(p.Value))
	}
	return symbols
}

// UnpackSymbols is the inverse of PackSymbols; the low half is
// reinterpreted as a signed value.
func UnpackSymbols(symbols []uint32) []Pair {
	pairs := make([]Pair, len(symbols))
	for i, sym := range symbols {
		pairs[i] = Pair{
			Value: int16(uint16(sym & 0xFFFF)),
			Run:   uint16(sym >> 16),
		}
	}
	return pairs
}
