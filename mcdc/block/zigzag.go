package block

import "sync"

// ZigzagOrder returns the permutation that walks an n x n block along
// antidiagonals u+v = s, alternating direction: even s reads (y,x) = (s-x, x)
// with x ascending, odd s reads (y, s-y) with y ascending. order[i] is the
// row-major index of the i-th scanned cell. For n=8 this is the standard
// JPEG zigzag.
func ZigzagOrder(n int) []int {
	order := make([]int, n*n)
	idx := 0
	for s := 0; s <= 2*(n-1); s++ {
		if s%2 == 0 {
			for x := 0; x <= s; x++ {
				y := s - x
				if x < n && y < n {
					order[idx] = y*n + x
					idx++
				}
			}
		} else {
			for y := 0; y <= s; y++ {
				x := s - y
				if x < n && y < n {
					order[idx] = y*n + x
					idx++
				}
			}
		}
	}
	return order
}

var (
	zigzag8  = sync.OnceValue(func() []int { return ZigzagOrder(8) })
	zigzag16 = sync.OnceValue(func() []int { return ZigzagOrder(16) })
)

func zigzagFor(blockSize int) ([]int, error) {
	switch blockSize {
	case 8:
		return zigzag8(), nil
	case 16:
		return zigzag16(), nil
	default:
		return nil, ErrInvalidBlockSize
	}
}

// ZigzagScan reorders each block of qcoeff to low-to-high frequency order:
// seq[i] = block[order[i]].
func ZigzagScan(qcoeff []int16, blockSize int) ([]int16, error) {
	order, err := zigzagFor(blockSize)
	if err != nil {
		return nil, err
	}
	elems := blockSize * blockSize
	if len(qcoeff)%elems != 0 {
		return nil, ErrBufferMismatch
	}

	seq := make([]int16, len(qcoeff))
	for b := 0; b < len(qcoeff); b += elems {
		src := qcoeff[b : b+elems]
		dst := seq[b : b+elems]
		for i, o := range order {
			dst[i] = src[o]
		}
	}
	return seq, nil
}

// InverseZigzag restores row-major block order: block[order[i]] = seq[i].
func InverseZigzag(seq []int16, blockSize int) ([]int16, error) {
	order, err := zigzagFor(blockSize)
	if err != nil {
		return nil, err
	}
	elems := blockSize * blockSize
	if len(seq)%elems != 0 {
		return nil, ErrBufferMismatch
	}

	qcoeff := make([]int16, len(seq))
	for b := 0; b < len(seq); b += elems {
		src := seq[b : b+elems]
		dst := qcoeff[b : b+elems]
		for i, o := range order {
			dst[o] = src[i]
		}
	}
	return qcoeff, nil
}
