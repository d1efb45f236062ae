package mcdc

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/cocosip/go-mcdc/mcdc/format"
	"github.com/cocosip/go-mcdc/mcdc/pixel"
	"github.com/cocosip/go-mcdc/mcdc/transform"
)

func newGray8(width, height int, fill func(x, y int) int32) *pixel.Image {
	im := &pixel.Image{
		Width:         width,
		Height:        height,
		Channels:      1,
		BitsStored:    8,
		BitsAllocated: 8,
		Signed:        false,
		Pixels:        make([]int32, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			im.Pixels[y*width+x] = fill(x, y)
		}
	}
	return im
}

func maxAbsDiff(a, b []int32) int32 {
	var m int32
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > m {
			m = d
		}
	}
	return m
}

func TestEncodeDecodeConstantImage(t *testing.T) {
	// All-128 8-bit image: after the level shift every sample is zero,
	// so each block reduces to a DC pair plus a trailing-zeros pair.
	im := newGray8(8, 8, func(x, y int) int32 { return 128 })

	data, err := Encode(im, 50)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// payload: counts (8) + 2 table entries (10) + 1 coded byte
	if len(data) != format.HeaderBytes+19 {
		t.Errorf("container size = %d, want %d", len(data), format.HeaderBytes+19)
	}
	symbolCount := binary.LittleEndian.Uint32(data[32:36])
	usedCount := binary.LittleEndian.Uint32(data[36:40])
	if symbolCount != 2 || usedCount != 2 {
		t.Errorf("symbol_count=%d used_symbol_count=%d, want 2 and 2", symbolCount, usedCount)
	}

	rec, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for i, v := range rec.Pixels {
		if v != 128 {
			t.Fatalf("rec[%d] = %d, want 128", i, v)
		}
	}
}

func TestEncodeDecodeDCOnly(t *testing.T) {
	im := newGray8(8, 8, func(x, y int) int32 {
		if x == 0 && y == 0 {
			return 255
		}
		return 0
	})

	data, err := Encode(im, 50)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	rec, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rec.Width != 8 || rec.Height != 8 || rec.Channels != 1 {
		t.Errorf("dimensions = %dx%dx%d, want 8x8x1", rec.Width, rec.Height, rec.Channels)
	}
	for _, v := range rec.Pixels {
		if v < 0 || v > 255 {
			t.Fatalf("sample %d outside [0,255]", v)
		}
	}
}

func TestEncodeDecodeNonDivisibleDims(t *testing.T) {
	// 10x6 pads to a 16x8 grid; decode must crop back exactly.
	im := newGray8(10, 6, func(x, y int) int32 { return int32(10*x + y) })

	data, err := Encode(im, 75)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	rec, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rec.Width != 10 || rec.Height != 6 {
		t.Fatalf("dimensions = %dx%d, want 10x6", rec.Width, rec.Height)
	}
	if len(rec.Pixels) != 60 {
		t.Fatalf("pixel count = %d, want 60", len(rec.Pixels))
	}
	t.Logf("max error at quality 75: %d", maxAbsDiff(im.Pixels, rec.Pixels))
}

func TestEncodeDecodeSigned12Bit(t *testing.T) {
	im := &pixel.Image{
		Width:         16,
		Height:        16,
		Channels:      1,
		BitsStored:    12,
		BitsAllocated: 16,
		Signed:        true,
		Pixels:        make([]int32, 256),
	}
	for i := range im.Pixels {
		im.Pixels[i] = int32(i*16) - 2048
	}

	data, err := Encode(im, 40)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// signed input: no level shift, flag bit 0 clear, is_signed set
	if data[23]&format.FlagLevelShift != 0 {
		t.Error("level-shift flag set for signed input")
	}
	if data[22] != 1 {
		t.Errorf("is_signed byte = %d, want 1", data[22])
	}

	rec, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !rec.Signed {
		t.Error("decoded image lost signedness")
	}
	if rec.BitsStored != 12 || rec.BitsAllocated != 16 {
		t.Errorf("bit depths = %d/%d, want 12/16", rec.BitsStored, rec.BitsAllocated)
	}
}

func TestEncodeDecodeSingleSymbolStream(t *testing.T) {
	// A block whose quantized coefficients are all ones packs to a
	// single distinct symbol and must still round-trip: pixels are the
	// inverse transform of a uniform coefficient plane at the
	// quantization step, so the forward pass re-quantizes to ones.
	coeffs := make([]float32, 64)
	for i := range coeffs {
		coeffs[i] = 50 // step for quality 51
	}
	pixels, err := transform.InverseBlocks(coeffs, 8)
	if err != nil {
		t.Fatalf("InverseBlocks failed: %v", err)
	}

	im := &pixel.Image{
		Width:         8,
		Height:        8,
		Channels:      1,
		BitsStored:    16,
		BitsAllocated: 16,
		Signed:        true,
		Pixels:        pixels,
	}

	data, err := Encode(im, 51)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	symbolCount := binary.LittleEndian.Uint32(data[32:36])
	usedCount := binary.LittleEndian.Uint32(data[36:40])
	if symbolCount != 64 {
		t.Errorf("symbol_count = %d, want 64", symbolCount)
	}
	if usedCount != 1 {
		t.Fatalf("used_symbol_count = %d, want 1", usedCount)
	}

	rec, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if d := maxAbsDiff(im.Pixels, rec.Pixels); d != 0 {
		t.Errorf("max error = %d, want exact round-trip", d)
	}
}

func TestEncodeQualitySweep(t *testing.T) {
	im := newGray8(64, 64, func(x, y int) int32 { return int32((x + y) % 256) })

	for _, quality := range []int{25, 50, 75, 100} {
		data, err := Encode(im, quality)
		if err != nil {
			t.Fatalf("quality %d: Encode failed: %v", quality, err)
		}
		rec, err := Decode(data)
		if err != nil {
			t.Fatalf("quality %d: Decode failed: %v", quality, err)
		}
		if rec.Width != im.Width || rec.Height != im.Height ||
			rec.BitsStored != im.BitsStored || rec.BitsAllocated != im.BitsAllocated ||
			rec.Channels != im.Channels || rec.Signed != im.Signed {
			t.Fatalf("quality %d: descriptor mismatch", quality)
		}

		var mse float64
		for i := range im.Pixels {
			d := float64(im.Pixels[i] - rec.Pixels[i])
			mse += d * d
		}
		mse /= float64(len(im.Pixels))
		rmse := math.Sqrt(mse)
		if math.IsNaN(rmse) || math.IsInf(rmse, 0) {
			t.Fatalf("quality %d: rmse not finite", quality)
		}
		t.Logf("quality %d: %d bytes (ratio %.2fx), rmse %.2f",
			quality, len(data), float64(len(im.Pixels))/float64(len(data)), rmse)
	}
}

func TestEncodeQuality100NearLossless(t *testing.T) {
	// Smooth ramp at step 1: reconstruction stays within a couple of
	// gray levels.
	im := newGray8(32, 32, func(x, y int) int32 { return int32(2*x + 3*y) })

	data, err := Encode(im, 100)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	rec, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if d := maxAbsDiff(im.Pixels, rec.Pixels); d > 3 {
		t.Errorf("max error = %d at quality 100, want <= 3", d)
	}
}

func TestHeaderBitExactness(t *testing.T) {
	im := newGray8(8, 8, func(x, y int) int32 { return 128 })
	data, err := Encode(im, 50)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if !bytes.Equal(data[0:4], []byte("MCDC")) {
		t.Errorf("magic = %q", data[0:4])
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != 1 {
		t.Errorf("version = %d, want 1", v)
	}
	if v := binary.LittleEndian.Uint16(data[6:8]); v != 32 {
		t.Errorf("header_bytes = %d, want 32", v)
	}
	if v := binary.LittleEndian.Uint32(data[8:12]); v != 8 {
		t.Errorf("width = %d, want 8", v)
	}
	if v := binary.LittleEndian.Uint32(data[12:16]); v != 8 {
		t.Errorf("height = %d, want 8", v)
	}
	if v := binary.LittleEndian.Uint16(data[16:18]); v != 1 {
		t.Errorf("channels = %d, want 1", v)
	}
	if v := binary.LittleEndian.Uint16(data[18:20]); v != 8 {
		t.Errorf("bits_allocated = %d, want 8", v)
	}
	if v := binary.LittleEndian.Uint16(data[20:22]); v != 8 {
		t.Errorf("bits_stored = %d, want 8", v)
	}
	if data[22] != 0 {
		t.Errorf("is_signed = %d, want 0", data[22])
	}
	if data[23] != format.FlagLevelShift {
		t.Errorf("flags = %d, want %d", data[23], format.FlagLevelShift)
	}
	if v := binary.LittleEndian.Uint16(data[24:26]); v != 8 {
		t.Errorf("block_size = %d, want 8", v)
	}
	if v := binary.LittleEndian.Uint16(data[26:28]); v != 50 {
		t.Errorf("quality = %d, want 50", v)
	}
	if v := binary.LittleEndian.Uint32(data[28:32]); int(v) != len(data)-32 {
		t.Errorf("payload_bytes = %d, want %d", v, len(data)-32)
	}
}

func TestDecodeRejectsTamperedContainer(t *testing.T) {
	im := newGray8(16, 16, func(x, y int) int32 { return int32(x * y % 256) })
	data, err := Encode(im, 60)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	t.Run("truncated payload", func(t *testing.T) {
		if _, err := Decode(data[:len(data)-1]); err == nil {
			t.Error("expected error on truncated container")
		}
	})

	t.Run("zeroed magic", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0], bad[1], bad[2], bad[3] = 0, 0, 0, 0
		if _, err := Decode(bad); err != format.ErrBadMagic {
			t.Errorf("error = %v, want %v", err, format.ErrBadMagic)
		}
	})

	t.Run("table length zero", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[44] = 0 // length byte of the first table entry
		if _, err := Decode(bad); err == nil {
			t.Error("expected error on zero code length")
		}
	})

	t.Run("table length 33", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[44] = 33
		if _, err := Decode(bad); err == nil {
			t.Error("expected error on code length 33")
		}
	})

	t.Run("bad version", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[4] = 2
		if _, err := Decode(bad); err != format.ErrBadVersion {
			t.Errorf("error = %v, want %v", err, format.ErrBadVersion)
		}
	})
}

func TestEncodeRejects(t *testing.T) {
	good := newGray8(8, 8, func(x, y int) int32 { return 1 })

	multi := *good
	multi.Channels = 3
	if _, err := Encode(&multi, 50); err != ErrInvalidChannels {
		t.Errorf("channels=3: error = %v, want %v", err, ErrInvalidChannels)
	}

	zero := *good
	zero.Width = 0
	if _, err := Encode(&zero, 50); err != ErrInvalidDimensions {
		t.Errorf("zero width: error = %v, want %v", err, ErrInvalidDimensions)
	}

	short := *good
	short.Pixels = make([]int32, 10)
	if _, err := Encode(&short, 50); err != ErrBufferMismatch {
		t.Errorf("short buffer: error = %v, want %v", err, ErrBufferMismatch)
	}

	if _, err := Encode(good, 0); err != ErrInvalidQuality {
		t.Errorf("quality 0: error = %v, want %v", err, ErrInvalidQuality)
	}
	if _, err := Encode(good, 101); err != ErrInvalidQuality {
		t.Errorf("quality 101: error = %v, want %v", err, ErrInvalidQuality)
	}
}

func TestEncodeDoesNotMutateInput(t *testing.T) {
	im := newGray8(8, 8, func(x, y int) int32 { return int32(x + y) })
	orig := append([]int32(nil), im.Pixels...)

	if _, err := Encode(im, 50); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if im.Signed {
		t.Error("input image signedness changed")
	}
	for i := range orig {
		if im.Pixels[i] != orig[i] {
			t.Fatalf("input pixels mutated at %d", i)
		}
	}
}
