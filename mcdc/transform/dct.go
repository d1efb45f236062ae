// Package transform implements the separable orthonormal 2-D DCT-II used by
// the codec, over consecutive NxN blocks of a flat coefficient buffer.
package transform

import (
	"errors"
	"math"
	"sync"
)

var (
	ErrInvalidBlockSize = errors.New("block_size must be 8 or 16")
	ErrBufferMismatch   = errors.New("buffer size not a multiple of block")
)

// tables holds the cosine basis and normalization vector for one N.
// Published once and never mutated afterwards.
type tables struct {
	n     int
	cos   []float64 // n*n, indexed [u*n + x]: cos((2x+1)*u*pi/(2n))
	alpha []float64 // alpha(0)=sqrt(1/n), alpha(u>0)=sqrt(2/n)
}

func newTables(n int) *tables {
	t := &tables{
		n:     n,
		cos:   make([]float64, n*n),
		alpha: make([]float64, n),
	}
	factor := math.Pi / (2 * float64(n))
	for u := 0; u < n; u++ {
		if u == 0 {
			t.alpha[u] = math.Sqrt(1 / float64(n))
		} else {
			t.alpha[u] = math.Sqrt(2 / float64(n))
		}
		for x := 0; x < n; x++ {
			t.cos[u*n+x] = math.Cos(float64(2*x+1) * float64(u) * factor)
		}
	}
	return t
}

var (
	tables8  = sync.OnceValue(func() *tables { return newTables(8) })
	tables16 = sync.OnceValue(func() *tables { return newTables(16) })
)

func tablesFor(blockSize int) (*tables, error) {
	switch blockSize {
	case 8:
		return tables8(), nil
	case 16:
		return tables16(), nil
	default:
		return nil, ErrInvalidBlockSize
	}
}

// ForwardBlocks applies the forward DCT-II to every NxN block of the input.
// Blocks are consecutive N*N runs of the buffer, row-major within a block.
func ForwardBlocks(blocks []int32, blockSize int) ([]float32, error) {
	t, err := tablesFor(blockSize)
	if err != nil {
		return nil, err
	}
	n := blockSize
	elems := n * n
	if len(blocks)%elems != 0 {
		return nil, ErrBufferMismatch
	}

	coeffs := make([]float32, len(blocks))
	tmp := make([]float64, elems)

	for b := 0; b < len(blocks); b += elems {
		src := blocks[b : b+elems]
		dst := coeffs[b : b+elems]

		// Row pass: tmp[y,u] = alpha(u) * sum_x src[y,x] * C(u,x)
		for y := 0; y < n; y++ {
			for u := 0; u < n; u++ {
				sum := 0.0
				for x := 0; x < n; x++ {
					sum += float64(src[y*n+x]) * t.cos[u*n+x]
				}
				tmp[y*n+u] = sum * t.alpha[u]
			}
		}

		// Column pass: dst[v,u] = alpha(v) * sum_y tmp[y,u] * C(v,y)
		for v := 0; v < n; v++ {
			for u := 0; u < n; u++ {
				sum := 0.0
				for y := 0; y < n; y++ {
					sum += tmp[y*n+u] * t.cos[v*n+y]
				}
				dst[v*n+u] = float32(sum * t.alpha[v])
			}
		}
	}
	return coeffs, nil
}

// InverseBlocks applies the inverse DCT to every NxN coefficient block,
// rounding half away from zero and clamping to the int32 range.
func InverseBlocks(coeffs []float32, blockSize int) ([]int32, error) {
	t, err := tablesFor(blockSize)
	if err != nil {
		return nil, err
	}
	n := blockSize
	elems := n * n
	if len(coeffs)%elems != 0 {
		return nil, ErrBufferMismatch
	}

	blocks := make([]int32, len(coeffs))
	tmp := make([]float64, elems)

	for b := 0; b < len(coeffs); b += elems {
		src := coeffs[b : b+elems]
		dst := blocks[b : b+elems]

		// Column pass: tmp[y,u] = sum_v alpha(v) * src[v,u] * C(v,y)
		for u := 0; u < n; u++ {
			for y := 0; y < n; y++ {
				sum := 0.0
				for v := 0; v < n; v++ {
					sum += t.alpha[v] * float64(src[v*n+u]) * t.cos[v*n+y]
				}
				tmp[y*n+u] = sum
			}
		}

		// Row pass: dst[y,x] = sum_u alpha(u) * tmp[y,u] * C(u,x)
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				sum := 0.0
				for u := 0; u < n; u++ {
					sum += t.alpha[u] * tmp[y*n+u] * t.cos[u*n+x]
				}
				sum = math.Round(sum)
				if sum > math.MaxInt32 {
					sum = math.MaxInt32
				}
				if sum < math.MinInt32 {
					sum = math.MinInt32
				}
				dst[y*n+x] = int32(sum)
			}
		}
	}
	return blocks, nil
}
