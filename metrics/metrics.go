// Package metrics computes the distortion figures reported by the evaluate
// driver: RMSE/PSNR over the unsigned display domain and the scaled
// absolute-error map.
package metrics

import (
	"errors"
	"math"
	"sort"

	"github.com/cocosip/go-mcdc/mcdc/pixel"
)

var ErrSizeMismatch = errors.New("metrics: size mismatch")

// MapToUnsigned projects samples onto the unsigned display domain
// [0, maxv]: signed images are offset by 2^(bits_stored-1), everything is
// clamped.
func MapToUnsigned(im *pixel.Image, maxv uint32) []uint32 {
	out := make([]uint32, len(im.Pixels))
	if im.Signed {
		offset := int32(1) << (im.BitsStored - 1)
		for i, s := range im.Pixels {
			v := s + offset
			if v < 0 {
				v = 0
			}
			u := uint32(v)
			if u > maxv {
				u = maxv
			}
			out[i] = u
		}
		return out
	}
	for i, s := range im.Pixels {
		if s < 0 {
			out[i] = 0
			continue
		}
		u := uint32(s)
		if u > maxv {
			u = maxv
		}
		out[i] = u
	}
	return out
}

// RMSEPSNR returns the root-mean-square error and the peak signal-to-noise
// ratio against the given peak value. PSNR is +Inf for identical inputs.
func RMSEPSNR(ref, rec []uint32, maxv uint32) (rmse, psnr float64, err error) {
	if len(ref) != len(rec) {
		return 0, 0, ErrSizeMismatch
	}
	mse := 0.0
	for i := range ref {
		d := float64(rec[i]) - float64(ref[i])
		mse += d * d
	}
	mse /= float64(len(ref))
	rmse = math.Sqrt(mse)
	if mse == 0 {
		return rmse, math.Inf(1), nil
	}
	psnr = 20*math.Log10(float64(maxv)) - 10*math.Log10(mse)
	return rmse, psnr, nil
}

// AbsError returns the elementwise absolute difference.
func AbsError(ref, rec []uint32) ([]uint32, error) {
	if len(ref) != len(rec) {
		return nil, ErrSizeMismatch
	}
	out := make([]uint32, len(ref))
	for i := range ref {
		if rec[i] > ref[i] {
			out[i] = rec[i] - ref[i]
		} else {
			out[i] = ref[i] - rec[i]
		}
	}
	return out, nil
}

// Percentile99 selects the value at index floor(0.99*(n-1)) of the sorted
// input.
func Percentile99(v []uint32) uint32 {
	if len(v) == 0 {
		return 0
	}
	s := make([]uint32, len(v))
	copy(s, v)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	idx := int(math.Floor(0.99 * float64(len(s)-1)))
	return s[idx]
}

// ErrorMap8 scales absolute errors into 8-bit gray so that the
// 99th-percentile error maps to 255; larger errors saturate.
func ErrorMap8(err []uint32) []uint8 {
	scale := Percentile99(err)
	if scale == 0 {
		scale = 1
	}
	out := make([]uint8, len(err))
	for i, e := range err {
		if e > scale {
			e = scale
		}
		v := 255 * float64(e) / float64(scale)
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		out[i] = uint8(math.Round(v))
	}
	return out
}
